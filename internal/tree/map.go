package tree

import (
	"bytes"
	"encoding/json"
	"iter"
	"reflect"
)

// Map is a string-keyed map that remembers insertion order.
// Profiles and recipes are built from Maps so that generated manifests keep
// the key order the templates produced.
//
// A nil *Map behaves like an empty map for all read operations.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// MapOf builds a Map from alternating key/value arguments.
// It panics on an odd argument count or a non-string key, so it is meant for
// literals in code and tests.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("tree.MapOf: odd number of arguments")
	}
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("tree.MapOf: key is not a string")
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// All iterates over key/value pairs in insertion order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present (a present nil value counts).
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// GetMap returns the value under key if it is a *Map.
func (m *Map) GetMap(key string) (*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Map)
	return sub, ok
}

// GetString returns the value under key if it is a string.
func (m *Map) GetString(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetList returns the value under key if it is a sequence.
func (m *Map) GetList(key string) ([]any, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
	if len(m.keys) == 0 {
		m.keys = nil
	}
}

// Equal reports whether two tree values hold the same data, including Map
// key order.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		bk := bv.Keys()
		for i, k := range av.Keys() {
			if bk[i] != k {
				return false
			}
			x, _ := av.Get(k)
			y, _ := bv.Get(k)
			if !Equal(x, y) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// MarshalYAML renders the map as an ordered mapping node.
func (m *Map) MarshalYAML() (any, error) {
	return ToNode(m)
}

// MarshalJSON renders the map as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
