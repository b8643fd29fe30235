package ingest

import (
	"fmt"
	"strings"
)

// FlattenMetadata reduces a metadata map to primitive values. Strings,
// numbers, bools, and nil pass through; slices collapse to a comma-joined
// string; anything else is stringified. Passage metadata columns and
// downstream filters only handle primitives.
func FlattenMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for key, val := range meta {
		out[key] = flattenValue(val)
	}
	return out
}

func flattenValue(val any) any {
	switch v := val.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
