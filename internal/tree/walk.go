package tree

import (
	"sort"
	"strconv"
	"strings"
)

// LeafFunc is called for every scalar leaf of a tree. path holds the keys
// (and stringified list indexes) from the root to the leaf. The returned
// value replaces the leaf and may be of any type, including a Map.
type LeafFunc func(path []string, value any) any

// Transform visits every scalar leaf once and returns a new tree built from
// the values fn returns. The input is not modified.
func Transform(value any, fn LeafFunc) any {
	return transform(value, nil, fn)
}

func transform(value any, path []string, fn LeafFunc) any {
	switch v := value.(type) {
	case *Map:
		result := &Map{values: make(map[string]any, v.Len())}
		for k, val := range v.All() {
			result.Set(k, transform(val, appendPath(path, k), fn))
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = transform(val, appendPath(path, strconv.Itoa(i)), fn)
		}
		return result
	default:
		return fn(path, value)
	}
}

// appendPath never shares a backing array between siblings.
func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}

// TransformStrings applies fn to every string leaf and leaves other
// scalars untouched.
func TransformStrings(value any, fn func(string) string) any {
	return Transform(value, func(_ []string, v any) any {
		if s, ok := v.(string); ok {
			return fn(s)
		}
		return v
	})
}

// Lookup follows a dotted path through nested maps.
func Lookup(root any, dotted string) (any, bool) {
	current := root
	for _, seg := range strings.Split(dotted, ".") {
		m, ok := current.(*Map)
		if !ok {
			return nil, false
		}
		current, ok = m.Get(seg)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Unset returns a copy of root with the key addressed by the dotted path
// removed. Paths that do not resolve to an existing key are ignored.
func Unset(root *Map, dotted string) *Map {
	result := CopyMap(root)
	segments := strings.Split(dotted, ".")
	last := segments[len(segments)-1]

	parent := result
	for _, seg := range segments[:len(segments)-1] {
		next, ok := parent.GetMap(seg)
		if !ok {
			return result
		}
		parent = next
	}
	parent.Delete(last)
	return result
}

// ToPlain converts Maps into map[string]any recursively. Template data and
// JSON pointer lookups work on plain Go maps.
func ToPlain(value any) any {
	switch v := value.(type) {
	case *Map:
		result := make(map[string]any, v.Len())
		for k, val := range v.All() {
			result[k] = ToPlain(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = ToPlain(val)
		}
		return result
	case Literal:
		return string(v)
	default:
		return value
	}
}

// FromPlain converts plain Go maps (as produced by encoding/json or
// yaml.v3 decoding into any) into Maps with sorted keys.
func FromPlain(value any) any {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, FromPlain(v[k]))
		}
		return m
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = FromPlain(val)
		}
		return result
	default:
		return value
	}
}
