// Package envfile reads and extends .env files.
package envfile

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

// Entry is one KEY=VALUE pair.
type Entry struct {
	Key   string
	Value string
}

// Parse reads .env content. Entries come back in file order; a key that
// appears twice keeps its first position.
func Parse(content string) ([]Entry, error) {
	values, err := gotenv.StrictParse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	keys := Keys(content)
	entries := make([]Entry, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, key := range keys {
		value, ok := values[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, Entry{Key: key, Value: value})
	}

	// Keys the line scanner missed, e.g. from multi-line values
	var rest []string
	for key := range values {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		entries = append(entries, Entry{Key: key, Value: values[key]})
	}

	return entries, nil
}

// ReadFile parses the .env file at path.
func ReadFile(path string) ([]Entry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	entries, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Values converts entries into a map.
func Values(entries []Entry) map[string]string {
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Value
	}
	return values
}

// Blank returns entries with empty values for names.
func Blank(names []string) []Entry {
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Key: name})
	}
	return entries
}

// Keys returns the keys declared in content, in order, including
// duplicates. Comments, blank lines and malformed lines are skipped.
func Keys(content string) []string {
	var keys []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		if key, ok := parseKey(scanner.Text()); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// MergeNoOverwrite adds entries whose keys are not yet declared in content.
// Existing lines are kept verbatim. New entries are appended below a
// "# added on YYYY-MM-DD" marker. It returns the new content and the keys
// that were added. Empty content yields a fresh file without a marker.
func MergeNoOverwrite(content string, entries []Entry, now time.Time) (string, []string) {
	present := make(map[string]bool)
	for _, key := range Keys(content) {
		present[key] = true
	}

	var added []Entry
	for _, e := range entries {
		if present[e.Key] {
			continue
		}
		present[e.Key] = true
		added = append(added, e)
	}
	if len(added) == 0 {
		return content, nil
	}

	var b strings.Builder
	if strings.TrimSpace(content) != "" {
		b.WriteString(strings.TrimRight(content, "\n"))
		b.WriteString("\n# added on " + now.Format("2006-01-02") + "\n")
	}
	keys := make([]string, 0, len(added))
	for _, e := range added {
		b.WriteString(Format(e))
		b.WriteByte('\n')
		keys = append(keys, e.Key)
	}
	return b.String(), keys
}

// Format renders an entry as a KEY=VALUE line.
func Format(e Entry) string {
	return e.Key + "=" + encodeValue(e.Value)
}

func parseKey(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "export "))
	idx := strings.IndexAny(trimmed, "=:")
	if idx <= 0 {
		return "", false
	}
	key := strings.TrimSpace(trimmed[:idx])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", false
	}
	return key, true
}

// encodeValue quotes a value when it would not survive as a bare word.
func encodeValue(val string) string {
	if strings.ContainsAny(val, " \t#\n\r") || strings.Contains(val, "\"") {
		val = strings.ReplaceAll(val, "\\", "\\\\")
		val = strings.ReplaceAll(val, "\"", "\\\"")
		val = strings.ReplaceAll(val, "\n", "\\n")
		val = strings.ReplaceAll(val, "\r", "\\r")
		return fmt.Sprintf(`"%s"`, val)
	}
	return val
}
