package tree

// Merge recursively merges overlay into base and returns a new value.
// Merge semantics:
//   - map onto map: key-wise; keys only in base are kept, keys only in
//     overlay are appended, shared keys are merged recursively
//   - list onto list: the overlay list replaces the base list
//   - anything else: overlay wins, including an explicit nil
//
// Neither input is modified and the result shares no containers with them.
func Merge(base, overlay any) any {
	baseMap, baseIsMap := base.(*Map)
	overlayMap, overlayIsMap := overlay.(*Map)
	if baseIsMap && overlayIsMap {
		return MergeMaps(baseMap, overlayMap)
	}

	// Lists and scalars: replace
	return Copy(overlay)
}

// MergeMaps is Merge specialised to two maps.
func MergeMaps(base, overlay *Map) *Map {
	result := CopyMap(base)

	for key, overlayValue := range overlay.All() {
		baseValue, exists := result.Get(key)
		if !exists {
			result.Set(key, Copy(overlayValue))
			continue
		}

		// Both are maps - recursive merge
		baseMap, baseIsMap := baseValue.(*Map)
		overlayMap, overlayIsMap := overlayValue.(*Map)
		if baseIsMap && overlayIsMap {
			result.Set(key, MergeMaps(baseMap, overlayMap))
			continue
		}

		// Default: replace
		result.Set(key, Copy(overlayValue))
	}

	return result
}

// MergeAll folds Merge over values from left to right.
func MergeAll(values ...any) any {
	var result any = NewMap()
	for _, v := range values {
		result = Merge(result, v)
	}
	return result
}

// CopyMap creates a deep copy of a map. A nil map yields an empty one.
func CopyMap(m *Map) *Map {
	result := &Map{values: make(map[string]any, m.Len())}
	for k, v := range m.All() {
		result.Set(k, Copy(v))
	}
	return result
}

// Copy creates a deep copy of any tree value.
func Copy(value any) any {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case *Map:
		if v == nil {
			return (*Map)(nil)
		}
		return CopyMap(v)
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = Copy(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = Copy(val)
		}
		return result
	case []string:
		result := make([]string, len(v))
		copy(result, v)
		return result
	default:
		// Primitive types are immutable, return as-is
		return value
	}
}
