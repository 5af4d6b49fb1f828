package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaJSON is a fixed JSON Schema for the shape of a raw model
// descriptor, following the teacher's compile-and-cache idiom in
// core/types/validation.go.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "var_prefix":      {"type": "string", "minLength": 1, "maxLength": 1},
    "varprefix":       {"type": "string", "minLength": 1, "maxLength": 1},
    "formula_prefix":  {"type": "string", "minLength": 1, "maxLength": 1},
    "formulaprefix":   {"type": "string", "minLength": 1, "maxLength": 1},
    "formprefix":      {"type": "string", "minLength": 1, "maxLength": 1},
    "var_delim":       {"type": "string", "minLength": 0, "maxLength": 2},
    "formula_delim":   {"type": "string", "minLength": 0, "maxLength": 2},
    "delim":           {"type": "string", "minLength": 0, "maxLength": 2},
    "commentline":     {"type": "string", "minLength": 1},
    "interpreter":     {"type": "string", "enum": ["python", "r"]},
    "cache_policy":    {"type": "string", "enum": ["strict", "lenient"]},
    "retry_policy":    {"type": "string", "enum": ["retry_all", "retry_except_timeout"]},
    "known_commands":  {"type": "array", "items": {"type": "string"}},
    "output": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  },
  "additionalProperties": true
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("schema://model.json", strings.NewReader(schemaJSON)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = compiler.Compile("schema://model.json")
	})
	return compiled, compileErr
}

// Validate checks a raw descriptor map against the model JSON Schema.
func Validate(raw map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling model schema: %w", err)
	}

	// jsonschema validates against values produced by encoding/json decode
	// (map[string]any/[]any/float64/...), so round-trip through JSON to
	// normalize any other representation (e.g. []string from YAML).
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	if err := schema.Validate(v); err != nil {
		return err
	}
	return nil
}
