package tree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Literal is a scalar that is emitted verbatim as a plain YAML integer.
// It holds octal-looking numbers such as file modes ("0400") that would
// otherwise be converted to decimal on a parse/dump round trip.
type Literal string

// ParseError wraps a YAML syntax error together with the text that failed
// to parse, so rendered templates can be inspected when they are broken.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse yaml: %v\n--- body ---\n%s", e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse parses a single YAML document into a tree value.
// An empty document yields nil.
func Parse(text string) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Text: text, Err: err}
	}
	v, err := fromNode(&doc)
	if err != nil {
		return nil, &ParseError{Text: text, Err: err}
	}
	return v, nil
}

// ParseMap parses text that must hold a mapping (or nothing).
// An empty document yields an empty Map.
func ParseMap(text string) (*Map, error) {
	v, err := Parse(text)
	if err != nil {
		return nil, err
	}
	switch m := v.(type) {
	case nil:
		return NewMap(), nil
	case *Map:
		return m, nil
	default:
		return nil, &ParseError{Text: text, Err: fmt.Errorf("expected a mapping, got %T", v)}
	}
}

// ParseMulti parses a stream of YAML documents separated by "---" lines.
// Empty documents are skipped.
func ParseMulti(text string) ([]any, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	var docs []any
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Text: text, Err: err}
		}
		v, err := fromNode(&doc)
		if err != nil {
			return nil, &ParseError{Text: text, Err: err}
		}
		if v == nil {
			continue
		}
		docs = append(docs, v)
	}
	return docs, nil
}

// Dump serializes a tree value to YAML with two-space indentation.
func Dump(v any) (string, error) {
	node, err := ToNode(v)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return buf.String(), nil
}

// DumpMulti serializes several documents into one stream, each introduced
// by a "---" line. Empty documents are dropped.
func DumpMulti(docs []any) (string, error) {
	var b strings.Builder
	for _, doc := range docs {
		if isEmpty(doc) {
			continue
		}
		out, err := Dump(doc)
		if err != nil {
			return "", err
		}
		b.WriteString("---\n")
		b.WriteString(out)
	}
	return b.String(), nil
}

// quotedModePattern matches file modes that an upstream template emitted as
// quoted strings.
var quotedModePattern = regexp.MustCompile(`mode: ['"]([0-9]+)['"]`)

// UnquoteModes rewrites `mode: '0400'` to `mode: 0400`. Compose expects file
// modes as bare octal numbers.
func UnquoteModes(text string) string {
	if !strings.Contains(text, "mode") {
		return text
	}
	return quotedModePattern.ReplaceAllString(text, "mode: ${1}")
}

// ToNode converts a tree value into a yaml.Node, keeping Map key order.
// Plain map[string]any values are emitted with sorted keys.
func ToNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, val := range t.All() {
			child, err := ToNode(val)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			node.Content = append(node.Content, keyNode(k), child)
		}
		return node, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			child, err := ToNode(t[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			node.Content = append(node.Content, keyNode(k), child)
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range t {
			child, err := ToNode(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case []string:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			child, err := ToNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case Literal:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: string(t)}, nil
	default:
		var node yaml.Node
		if err := node.Encode(v); err != nil {
			return nil, fmt.Errorf("encode %T: %w", v, err)
		}
		return &node, nil
	}
}

func keyNode(k string) *yaml.Node {
	var node yaml.Node
	// Encoding a string never fails; it also takes care of quoting keys
	// such as "yes" or "80".
	_ = node.Encode(k)
	return &node
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, val := n.Content[i], n.Content[i+1]
			if k.ShortTag() == "!!merge" {
				if err := mergeKey(m, val); err != nil {
					return nil, err
				}
				continue
			}
			value, err := fromNode(val)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, value)
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!int" && isOctalLooking(n.Value) {
			return Literal(n.Value), nil
		}
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
	}
}

// mergeKey applies a YAML "<<" merge: merged keys never override keys that
// are already present.
func mergeKey(m *Map, n *yaml.Node) error {
	sources := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		sources = n.Content
	}
	for _, src := range sources {
		v, err := fromNode(src)
		if err != nil {
			return err
		}
		sm, ok := v.(*Map)
		if !ok {
			return fmt.Errorf("line %d: merge value is not a mapping", src.Line)
		}
		for k, val := range sm.All() {
			if !m.Has(k) {
				m.Set(k, val)
			}
		}
	}
	return nil
}

func isOctalLooking(s string) bool {
	if len(s) < 2 || s[0] != '0' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '7' {
			return false
		}
	}
	return true
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *Map:
		return t.Len() == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
