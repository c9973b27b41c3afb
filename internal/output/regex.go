package output

import (
	"regexp"

	"github.com/cameronsjo/rigger/internal/tree"
	"github.com/cameronsjo/rigger/internal/ui"
)

// FinalRegex is a last-pass substitution over a serialized manifest.
type FinalRegex struct {
	Pattern *regexp.Regexp
	Replace string
}

// ParseFinalRegexes reads a profile's finalRegexes list of
// {pattern, replace} entries. Malformed entries are skipped with a warning.
func ParseFinalRegexes(v any, logger ui.Logger) []FinalRegex {
	if logger == nil {
		logger = ui.Discard
	}
	list, ok := v.([]any)
	if !ok {
		if v != nil {
			logger.Warning("finalRegexes must be a list, ignoring it")
		}
		return nil
	}

	var regexes []FinalRegex
	for i, item := range list {
		entry, ok := item.(*tree.Map)
		if !ok {
			logger.Warning("finalRegexes #%d is not a mapping, skipping", i+1)
			continue
		}
		pattern, okPattern := entry.GetString("pattern")
		replace, okReplace := entry.Get("replace")
		if !okPattern || pattern == "" || !okReplace {
			logger.Warning("finalRegexes #%d needs pattern and replace, skipping", i+1)
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			logger.Warning("finalRegexes #%d: invalid pattern %q: %v, skipping", i+1, pattern, err)
			continue
		}
		replacement := ""
		if replace != nil {
			replacement = scalar(replace)
		}
		regexes = append(regexes, FinalRegex{Pattern: re, Replace: replacement})
	}
	return regexes
}

// ApplyFinalRegexes runs every substitution over text, in order.
func ApplyFinalRegexes(text string, regexes []FinalRegex) string {
	for _, r := range regexes {
		text = r.Pattern.ReplaceAllString(text, r.Replace)
	}
	return text
}
