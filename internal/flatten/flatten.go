// Package flatten walks nested JSON-shaped values and emits (key-path, value)
// pairs with noise suppression applied at both the key and value level.
package flatten

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Pair is a single flattened leaf: a dot/bracket key-path and its text value.
type Pair struct {
	Path  string
	Value string
}

// Flatten walks node depth-first and returns the surviving (key-path, value)
// pairs. Map keys recurse as "path.key" in sorted key order, list elements as
// "path[i]" capped at MaxListItems, scalars are terminal. A key-path rejected
// by IsNoiseKey short-circuits its entire subtree: an excluded branch never
// contributes text even if a descendant would pass value-level filtering.
func Flatten(node any, prefix, section string) []Pair {
	var out []Pair
	walk(node, prefix, section, &out)
	return out
}

func walk(node any, path, section string, out *[]Pair) {
	if path != "" && IsNoiseKey(path, section) {
		return
	}

	switch v := node.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			child := k
			if path != "" {
				child = path + "." + k
			}
			walk(v[k], child, section, out)
		}
	case []any:
		n := len(v)
		if n > MaxListItems {
			n = MaxListItems
		}
		for i := 0; i < n; i++ {
			walk(v[i], path+"["+strconv.Itoa(i)+"]", section, out)
		}
	default:
		text := strings.TrimSpace(scalarText(v))
		if text == "" || IsNoiseValue(text) {
			return
		}
		*out = append(*out, Pair{Path: path, Value: TruncateValue(text)})
	}
}

// scalarText renders a terminal value as text. Non-scalar leaves that slip
// through (shouldn't occur given the recursion) fall back to compact JSON.
func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	default:
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", x)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
