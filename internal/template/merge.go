package template

// Merge deep-merges override onto base and returns a new map; neither input
// is mutated. Override keys win per-key; when both sides hold a nested
// map[string]interface{} under the same key the maps merge recursively, so
// sibling keys in the base survive an override that only touches one of them.
func Merge(base, override map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(override))
	for key, value := range base {
		merged[key] = copyValue(value)
	}

	for key, value := range override {
		baseMap, baseIsMap := merged[key].(map[string]interface{})
		overrideMap, overrideIsMap := value.(map[string]interface{})
		if baseIsMap && overrideIsMap {
			merged[key] = Merge(baseMap, overrideMap)
			continue
		}
		merged[key] = copyValue(value)
	}

	return merged
}

// copyValue copies maps and slices so merged configs never alias their
// inputs; scalars are returned as-is.
func copyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[key] = copyValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = copyValue(val)
		}
		return out
	default:
		return value
	}
}
