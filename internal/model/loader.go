package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadArg resolves a CLI argument typed as "JSON-or-path-or-alias" per
// spec.md §6.1: try a JSON literal first, then an existing path ending in
// .json (or .yaml/.yml), then an alias lookup under .fz/<kind>/<name>.json.
// Each fallback step may produce a warning, returned in warnings.
func LoadArg(kind, arg string) (raw map[string]any, warnings []string, err error) {
	trimmed := strings.TrimSpace(arg)

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		raw, order, err := decodeOrdered([]byte(trimmed))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON literal for %s: %w", kind, err)
		}
		stashOrder(raw, order)
		return raw, nil, nil
	}

	if strings.HasSuffix(trimmed, ".json") {
		if _, statErr := os.Stat(trimmed); statErr == nil {
			data, readErr := os.ReadFile(trimmed)
			if readErr != nil {
				return nil, nil, readErr
			}
			raw, order, err := decodeOrdered(data)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid JSON file %s: %w", trimmed, err)
			}
			stashOrder(raw, order)
			return raw, nil, nil
		}
		warnings = append(warnings, fmt.Sprintf("%s: path %q ends in .json but does not exist, falling back to alias lookup", kind, trimmed))
	}

	if strings.HasSuffix(trimmed, ".yaml") || strings.HasSuffix(trimmed, ".yml") {
		if data, readErr := os.ReadFile(trimmed); readErr == nil {
			var y map[string]any
			if err := yaml.Unmarshal(data, &y); err != nil {
				return nil, nil, fmt.Errorf("invalid YAML file %s: %w", trimmed, err)
			}
			return y, warnings, nil
		}
	}

	for _, root := range []string{".fz", filepath.Join(homeDir(), ".fz")} {
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			candidate := filepath.Join(root, kind, trimmed+ext)
			data, readErr := os.ReadFile(candidate)
			if readErr != nil {
				continue
			}
			if ext == ".json" {
				raw, order, err := decodeOrdered(data)
				if err != nil {
					return nil, nil, fmt.Errorf("invalid JSON alias %s: %w", candidate, err)
				}
				stashOrder(raw, order)
				return raw, warnings, nil
			}
			var y map[string]any
			if err := yaml.Unmarshal(data, &y); err != nil {
				return nil, nil, fmt.Errorf("invalid YAML alias %s: %w", candidate, err)
			}
			return y, warnings, nil
		}
	}

	warnings = append(warnings, fmt.Sprintf("%s: %q did not resolve as JSON literal, path, or alias", kind, trimmed))
	return nil, warnings, fmt.Errorf("%s %q not found", kind, trimmed)
}

func homeDir() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return h
}

// decodeOrdered decodes a JSON object while recording the declared key
// order of its top-level "output" object, since Go maps do not preserve
// order and spec.md requires output extraction in declaration order.
func decodeOrdered(data []byte) (map[string]any, []string, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	order, err := outputKeyOrder(data)
	if err != nil {
		// Order extraction is best-effort; fall back to map order.
		return raw, nil, nil
	}
	return raw, order, nil
}

func outputKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if s, ok := tok.(string); ok && s == "output" {
			return readObjectKeyOrder(dec)
		}
	}
}

func readObjectKeyOrder(dec *json.Decoder) ([]string, error) {
	// Expect '{'
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("expected object for output")
	}
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		order = append(order, key)
		// skip the value (a string command)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func stashOrder(raw map[string]any, order []string) {
	if raw == nil || len(order) == 0 {
		return
	}
	raw["__output_order__"] = order
}
