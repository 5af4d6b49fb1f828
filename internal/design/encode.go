package design

import (
	"encoding/json"
	"fmt"
	"strings"
)

// pyStrList renders a Go string slice as a Python list literal, the same
// minimal-literal approach internal/evaluator/pyproc.go uses to seed
// bindings.
func pyStrList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// pyCombos renders a batch of combos as a Python list-of-dicts literal
// via JSON, which is valid Python syntax for numbers, strings and nested
// lists/objects. Booleans and null keep their JSON spelling (true, false,
// null), which Python does not accept.
func pyCombos(combos []map[string]any) string {
	data, err := json.Marshal(combos)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeListOfCombos parses an algorithm function's JSON-array-of-objects
// return value.
func decodeListOfCombos(raw string) ([]map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var combos []map[string]any
	if err := json.Unmarshal([]byte(raw), &combos); err != nil {
		return nil, fmt.Errorf("decoding combo batch %q: %w", raw, err)
	}
	return combos, nil
}

// decodeJSONObject parses an algorithm function's JSON-object return
// value (analysis's {text, data, [html]} result).
func decodeJSONObject(raw string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("decoding analysis result %q: %w", raw, err)
	}
	return obj, nil
}
