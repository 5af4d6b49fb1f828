// Package model parses and validates a model descriptor: the mapping from
// option name to value described in spec.md §3 ("Model descriptor").
package model

import (
	"encoding/json"
	"fmt"
)

// Model is a parsed, normalized model descriptor.
type Model struct {
	VarPrefix     string            // default "$"
	VarDelimL     string            // default "{"
	VarDelimR     string            // default "}"
	FormulaPrefix string            // default "@"
	FormulaDelimL string            // default "{"
	FormulaDelimR string            // default "}"
	CommentLine   string            // default "#"
	Interpreter   string            // "python" (default) or "r"
	Output        []OutputSpec      // ordered: key -> shell command
	KnownCommands []string          // parsed from "known_commands"; no code reads it (the local shell adapter does not classify or rewrite command tokens)
	CachePolicy   string            // "strict" (default, reject any null output on cache hit) or "lenient"
	RetryPolicy   string            // "retry_all" (default) or "retry_except_timeout"
	Raw           map[string]any    // original descriptor, for round-tripping unknown keys
}

// OutputSpec is one entry of model.output, kept ordered because §4.1
// requires extraction in the order the model declares it.
type OutputSpec struct {
	Key     string
	Command string
}

// Defaults returns a Model with every spec-mandated default populated.
func Defaults() Model {
	return Model{
		VarPrefix:     "$",
		VarDelimL:     "{",
		VarDelimR:     "}",
		FormulaPrefix: "@",
		FormulaDelimL: "{",
		FormulaDelimR: "}",
		CommentLine:   "#",
		Interpreter:   "python",
		CachePolicy:   "strict",
		RetryPolicy:   "retry_all",
	}
}

// Parse normalizes a raw descriptor map (as loaded from JSON, YAML, or a
// JSON-literal CLI argument) into a Model, resolving old/new synonym option
// names per spec.md §3 ("Old synonyms ... must resolve to the new names;
// new names take priority when both present").
func Parse(raw map[string]any) (Model, error) {
	if err := Validate(raw); err != nil {
		return Model{}, fmt.Errorf("invalid model descriptor: %w", err)
	}

	m := Defaults()
	m.Raw = raw

	// var_prefix / varprefix
	if v := pickString(raw, "var_prefix", "varprefix"); v != "" {
		m.VarPrefix = v
	}
	if v := pickString(raw, "formula_prefix", "formulaprefix", "formprefix"); v != "" {
		m.FormulaPrefix = v
	}
	if v := pickString(raw, "commentline"); v != "" {
		m.CommentLine = v
	}

	// delim sets both var_delim and formula_delim when the individual ones
	// are absent.
	if d, ok := rawDelim(raw, "delim"); ok {
		m.VarDelimL, m.VarDelimR = d[0], d[1]
		m.FormulaDelimL, m.FormulaDelimR = d[0], d[1]
	}
	if d, ok := rawDelim(raw, "var_delim"); ok {
		m.VarDelimL, m.VarDelimR = d[0], d[1]
	}
	if d, ok := rawDelim(raw, "formula_delim"); ok {
		m.FormulaDelimL, m.FormulaDelimR = d[0], d[1]
	}

	if v := pickString(raw, "interpreter"); v != "" {
		m.Interpreter = v
	}
	if v := pickString(raw, "cache_policy"); v != "" {
		m.CachePolicy = v
	}
	if v := pickString(raw, "retry_policy"); v != "" {
		m.RetryPolicy = v
	}

	if kc, ok := raw["known_commands"].([]any); ok {
		for _, v := range kc {
			if s, ok := v.(string); ok {
				m.KnownCommands = append(m.KnownCommands, s)
			}
		}
	}

	if out, ok := raw["output"].(map[string]any); ok {
		// map iteration order is not stable; the descriptor is expected to
		// have come through an ordered decoder (see decodeOrdered in
		// loader.go) which stashes the declared order in "__output_order__".
		order, _ := raw["__output_order__"].([]string)
		if len(order) == 0 {
			for k := range out {
				order = append(order, k)
			}
		}
		for _, k := range order {
			cmd, _ := out[k].(string)
			m.Output = append(m.Output, OutputSpec{Key: k, Command: cmd})
		}
	}

	return m, nil
}

func pickString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// rawDelim splits a two-character delim option into {left, right}.
func rawDelim(raw map[string]any, key string) ([2]string, bool) {
	v, ok := raw[key].(string)
	if !ok || len(v) != 2 {
		return [2]string{}, false
	}
	return [2]string{string(v[0]), string(v[1])}, true
}

// MarshalJSON round-trips Raw so a Model can be written back out as its
// original descriptor.
func (m Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Raw)
}
