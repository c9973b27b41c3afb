package placeholder

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cameronsjo/rigger/internal/ui"
)

// TagVariable is reserved for image versions and never lands in env files.
const TagVariable = "TAG"

var flatPattern = regexp.MustCompile(`(?i)\$\{([a-z0-9_-]*)\}`)

// ScanText returns the distinct variable names of plain ${NAME} tokens in
// text, sorted, without TAG. Tokens with defaults are not matched.
func ScanText(text string) []string {
	seen := make(map[string]struct{})
	for _, m := range flatPattern.FindAllStringSubmatch(text, -1) {
		if m[1] == TagVariable {
			continue
		}
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Inflector substitutes placeholders inline with known values.
type Inflector struct {
	Values map[string]string
	Logger ui.Logger
}

// NewInflector creates an Inflector over values.
func NewInflector(values map[string]string, logger ui.Logger) *Inflector {
	if values == nil {
		values = map[string]string{}
	}
	if logger == nil {
		logger = ui.Discard
	}
	return &Inflector{Values: values, Logger: logger}
}

// Replace resolves every token in text from Values, falling back to the
// token's default. A quoted '${X}' is replaced together with its quotes.
// Tokens with neither a value nor a default become empty and are reported.
func (in *Inflector) Replace(text string) string {
	matches := Pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text
	}

	missing := make(map[string]struct{})
	for _, m := range matches {
		raw := m[0]
		tok := parseToken(raw, m[1])
		name, def, hasDefault := tok.Name, tok.Default, tok.HasDefault

		value, ok := in.Values[name]
		if !ok {
			value = def
			if !hasDefault {
				if _, reported := missing[name]; !reported {
					in.Logger.Warning("No value to set for variable %q, removing", name)
				}
				missing[name] = struct{}{}
			}
		}

		text = strings.ReplaceAll(text, "'"+raw+"'", value)
		text = strings.ReplaceAll(text, raw, value)
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		in.Logger.Warning("List of missing variables: %s", strings.Join(names, ", "))
	}

	return text
}
