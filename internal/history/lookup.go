package history

import (
	"strings"
)

// NumberAt resolves a dotted field path against a nested document and
// returns the numeric value at the end of it. Any missing key,
// non-object intermediate, or non-numeric terminal yields ok=false.
// Total over all inputs; never panics.
func NumberAt(doc map[string]any, path string) (float64, bool) {
	if doc == nil || path == "" {
		return 0, false
	}

	keys := strings.Split(path, ".")
	current := doc
	for i, key := range keys {
		value, ok := current[key]
		if !ok {
			return 0, false
		}
		if i == len(keys)-1 {
			return asNumber(value)
		}
		current, ok = value.(map[string]any)
		if !ok {
			return 0, false
		}
	}
	return 0, false
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
