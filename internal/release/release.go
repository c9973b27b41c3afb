// Package release pins ${TAG} image versions from a release file.
//
// A release file has one rule per line:
//
//	# comments are ignored
//	nginx:1.25.3
//	shop/*:2.4.0
//	nginx:*:1.2.3
//
// Everything before the last colon is an image name glob, the rest is the
// version. `image: shop/api:${TAG}` becomes `image: shop/api:2.4.0`.
package release

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/cameronsjo/rigger/internal/tree"
	"github.com/cameronsjo/rigger/internal/ui"
)

// Token is the placeholder the replacer resolves.
const Token = "${TAG}"

var unresolvedPattern = regexp.MustCompile(`(?i)([a-z0-9_-]*):\$\{TAG\}`)

// Rule maps an image name glob to a version.
type Rule struct {
	Glob    string
	Version string
	pattern *regexp.Regexp
}

// Replacer applies release rules. It is safe to reuse across inputs.
type Replacer struct {
	rules  []Rule
	logger ui.Logger
}

// Load reads a release file. An empty path yields a Replacer without rules
// that only applies the latest fallback.
func Load(path string, logger ui.Logger) (*Replacer, error) {
	if path == "" {
		return New(nil, logger), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("release file %s does not exist", path)
		}
		return nil, fmt.Errorf("read release file: %w", err)
	}

	rules, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse release file %s: %w", path, err)
	}
	return New(rules, logger), nil
}

// Parse reads release rules. Blank lines and # comments are skipped.
func Parse(content []byte) ([]Rule, error) {
	var rules []Rule
	scanner := bufio.NewScanner(bytes.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := NewRule(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// NewRule compiles one `glob:version` line. The line is split on its last
// colon so globs may contain colons themselves.
func NewRule(line string) (Rule, error) {
	idx := strings.LastIndex(line, ":")
	if idx <= 0 || idx == len(line)-1 {
		return Rule{}, fmt.Errorf("invalid release rule %q, want name:version", line)
	}
	glob, version := line[:idx], line[idx+1:]

	quoted := strings.ReplaceAll(regexp.QuoteMeta(glob), `\*`, ".*")
	pattern, err := regexp.Compile(`(?i)(` + quoted + `):\$\{TAG\}`)
	if err != nil {
		return Rule{}, fmt.Errorf("compile rule %q: %w", line, err)
	}
	return Rule{Glob: glob, Version: version, pattern: pattern}, nil
}

// New creates a Replacer from compiled rules.
func New(rules []Rule, logger ui.Logger) *Replacer {
	if logger == nil {
		logger = ui.Discard
	}
	return &Replacer{rules: rules, logger: logger}
}

// Rules returns the loaded rules in file order.
func (r *Replacer) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Replace pins every name:${TAG} in text. Rules apply in file order; what
// is still unresolved afterwards falls back to latest with a warning.
func (r *Replacer) Replace(text string) string {
	if !strings.Contains(text, Token) {
		return text
	}

	for _, rule := range r.rules {
		text = rule.pattern.ReplaceAllString(text, "${1}:"+escapeReplacement(rule.Version))
	}

	return unresolvedPattern.ReplaceAllStringFunc(text, func(match string) string {
		r.logger.Warning("Replace unset image %s with \"latest\"", match)
		return strings.Replace(match, Token, "latest", 1)
	})
}

// ReplaceTree applies Replace to every string leaf of v.
func (r *Replacer) ReplaceTree(v any) any {
	return tree.TransformStrings(v, r.Replace)
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
