// Package devutil has small helpers for debug output in the commands.
package devutil

import "encoding/json"

// pick round-trips any struct/map through JSON into a map[string]any and
// keeps only the requested keys. Handy for compact debug prints.
func pick(v any, keys ...string) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if val, ok := m[k]; ok {
			out[k] = val
		}
	}
	return out
}

func Pick(v any, keys ...string) map[string]any {
	return pick(v, keys...)
}

// JSONLine renders v as single-line JSON for log output. Marshal failures
// come back as an empty object rather than breaking the log line.
func JSONLine(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
