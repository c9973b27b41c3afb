package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/go-openapi/jsonpointer"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/rigger/internal/tree"
)

const defaultIndent = 2

// funcMap returns rigger's template helpers. They are layered on top of
// sprig.TxtFuncMap.
func (e *Engine) funcMap() template.FuncMap {
	return template.FuncMap{
		"toYaml":        toYaml,
		"yamlEnv":       yamlEnv,
		"yamlEnc":       yamlEnc,
		"jsonEnc":       jsonEnc,
		"jsonEnv":       jsonEnv,
		"ensureBoolean": ensureBoolean,
		"strRepeat":     strRepeat,
		"include":       e.include,
		"subPath":       e.subPath,
	}
}

// toYaml dumps v as block YAML without a trailing newline.
func toYaml(v any) (string, error) {
	out, err := tree.Dump(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(out, "\n"), nil
}

// yamlEnv dumps v as single-line flow YAML, suitable for an env value.
func yamlEnv(v any) (string, error) {
	node, err := tree.ToNode(v)
	if err != nil {
		return "", err
	}
	if node.Kind == yaml.MappingNode || node.Kind == yaml.SequenceNode {
		node.Style = yaml.FlowStyle
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(defaultIndent)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("yamlEnv: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("yamlEnv: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// yamlEnc dumps block YAML with every line indented. It is called as
// `yamlEnc .value` or `yamlEnc 4 .value`; the value is always last so it
// works at the end of a pipeline.
func yamlEnc(args ...any) (string, error) {
	if len(args) == 0 || len(args) > 2 {
		return "", fmt.Errorf("yamlEnc: want 1 or 2 arguments, got %d", len(args))
	}
	indent := defaultIndent
	if len(args) == 2 {
		n, err := toInt(args[0])
		if err != nil {
			return "", fmt.Errorf("yamlEnc indent: %w", err)
		}
		indent = n
	}
	return indentYAML(args[len(args)-1], indent)
}

func indentYAML(v any, indent int) (string, error) {
	out, err := toYaml(v)
	if err != nil {
		return "", err
	}
	if indent <= 0 {
		return out, nil
	}
	pad := strings.Repeat(" ", indent)
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n"), nil
}

func jsonEnc(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree.ToPlain(v)); err != nil {
		return "", fmt.Errorf("jsonEnc: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// jsonEnv is jsonEnc with double quotes escaped for embedding in an
// already quoted env value.
func jsonEnv(v any) (string, error) {
	out, err := jsonEnc(v)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(out, `"`, `\"`), nil
}

func ensureBoolean(v any) string {
	switch b := v.(type) {
	case bool:
		return strconv.FormatBool(b)
	case int:
		if b == 1 {
			return "true"
		}
	case string:
		if b == "1" || b == "true" {
			return "true"
		}
	}
	return "false"
}

func strRepeat(s string, count any) (string, error) {
	n, err := toInt(count)
	if err != nil {
		return "", fmt.Errorf("strRepeat: %w", err)
	}
	if n < 0 {
		n = 0
	}
	return strings.Repeat(s, n), nil
}

// include renders another template and returns its text.
func (e *Engine) include(id string, data any) (string, error) {
	return e.Render(id, data)
}

// subPath renders template id with data, keeps the first YAML document,
// optionally narrows it with a JSON pointer and returns it as indented
// YAML: `subPath "service" . "/environment" 4`.
func (e *Engine) subPath(id string, data any, args ...any) (string, error) {
	if len(args) > 2 {
		return "", fmt.Errorf("subPath: too many arguments")
	}

	text, err := e.Render(id, data)
	if err != nil {
		return "", err
	}
	docs, err := tree.ParseMulti(text)
	if err != nil {
		return "", fmt.Errorf("subPath %s: %w", id, err)
	}
	var value any
	if len(docs) > 0 {
		value = tree.ToPlain(docs[0])
	}

	if len(args) > 0 {
		pointer, ok := args[0].(string)
		if !ok {
			return "", fmt.Errorf("subPath: pointer must be a string, got %T", args[0])
		}
		if pointer != "" {
			p, err := jsonpointer.New(pointer)
			if err != nil {
				return "", fmt.Errorf("subPath pointer %q: %w", pointer, err)
			}
			value, _, err = p.Get(value)
			if err != nil {
				return "", fmt.Errorf("subPath %s%s: %w", id, pointer, err)
			}
		}
	}

	indent := defaultIndent
	if len(args) > 1 {
		n, err := toInt(args[1])
		if err != nil {
			return "", fmt.Errorf("subPath indent: %w", err)
		}
		indent = n
	}
	return indentYAML(value, indent)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
