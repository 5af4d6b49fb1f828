package template

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Funz/fz-sub001/internal/model"
)

// ExtractOutputs runs every model.Output command in dir as a subshell and
// casts its trimmed stdout per spec.md §4.1 ("Output-value extraction").
// A command's non-zero exit or empty output yields nil for that key plus a
// warning; it never fails the case.
func ExtractOutputs(ctx context.Context, m model.Model, dir string) (map[string]any, []string) {
	values := make(map[string]any, len(m.Output))
	var warnings []string

	for _, spec := range m.Output {
		out, err := runInDir(ctx, dir, spec.Command)
		trimmed := strings.TrimSpace(out)
		if err != nil || trimmed == "" {
			values[spec.Key] = nil
			warnings = append(warnings, "output "+spec.Key+": command produced no usable output")
			continue
		}
		values[spec.Key] = CastValue(trimmed)
	}

	return values, warnings
}

func runInDir(ctx context.Context, dir, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// CastValue applies the four-step cast of spec.md §4.1: JSON, then a safe
// literal, then int/float, then plain string. A one-element sequence
// collapses to its sole element.
//
// encoding/json decodes every bare JSON number into float64 when the
// target is `any`, which would otherwise lose the int/float distinction
// the original Python's json.loads preserves naturally (it decodes "42"
// to an int). A bare top-level integer literal is promoted back to
// int64 here; numbers nested inside a decoded array or object are left
// as float64, matching CastValue("[1]") == float64(1).
func CastValue(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		if f, ok := v.(float64); ok && isIntegerLiteral(text) {
			return int64(f)
		}
		return collapseSingleton(v)
	}

	if v, ok := parseLiteral(text); ok {
		return collapseSingleton(v)
	}

	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}

	return text
}

// isIntegerLiteral reports whether text is itself a base-10 integer (no
// fractional part, no exponent), so "42" promotes to int64 but "3.14" and
// "1e2" stay float64.
func isIntegerLiteral(text string) bool {
	_, err := strconv.ParseInt(text, 10, 64)
	return err == nil
}

func collapseSingleton(v any) any {
	if arr, ok := v.([]any); ok && len(arr) == 1 {
		return arr[0]
	}
	return v
}

// parseLiteral handles the host-language-literal forms that are not valid
// JSON but are common interpreter repr() output: Python's True/False/None
// and single-quoted strings.
func parseLiteral(text string) (any, bool) {
	switch text {
	case "True":
		return true, true
	case "False":
		return false, true
	case "None":
		return nil, true
	}
	if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		return text[1 : len(text)-1], true
	}
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		inner := strings.TrimSpace(text[1 : len(text)-1])
		if inner == "" {
			return []any{}, true
		}
		parts := strings.Split(inner, ",")
		result := make([]any, 0, len(parts))
		for _, p := range parts {
			result = append(result, CastValue(strings.TrimSpace(p)))
		}
		return result, true
	}
	return nil, false
}
