package template

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Funz/fz-sub001/internal/evaluator"
	"github.com/Funz/fz-sub001/internal/model"
)

// EvaluateFormulas implements spec.md §4.1 ("Expression evaluation"): it
// collects every context line in text, executes them (in declaration
// order) in a fresh interpreter session seeded with combo, then replaces
// every formula occurrence with its evaluated, optionally formatted,
// value. Context lines themselves are left in the text untouched --
// spec.md only says they are "executed", not stripped.
//
// If the configured interpreter's binary is unavailable, evaluation is
// skipped entirely and one warning is returned, per spec.md's
// "Interpreters" subsection.
func EvaluateFormulas(ctx context.Context, m model.Model, text string, combo map[string]any, factory evaluator.Factory) (string, []string, error) {
	pat := buildPatterns(m)
	if pat.delimFormula == nil {
		return text, nil, nil
	}

	lines := contextLines(pat, text)
	hasFormulas := pat.delimFormula.MatchString(text)
	if len(lines) == 0 && !hasFormulas {
		return text, nil, nil
	}

	session, err := factory.Open(ctx, combo)
	if err != nil {
		if _, ok := err.(*evaluator.ErrUnavailable); ok {
			return text, []string{fmt.Sprintf("interpreter unavailable, skipping expression evaluation: %v", err)}, nil
		}
		return text, nil, err
	}
	defer session.Close()

	if len(lines) > 0 {
		joined := dedent(strings.Join(lines, "\n"))
		if err := session.Exec(ctx, joined); err != nil {
			return text, []string{fmt.Sprintf("context-line execution failed: %v", err)}, nil
		}
	}

	var warnings []string
	out := pat.delimFormula.ReplaceAllStringFunc(text, func(tok string) string {
		g := pat.delimFormula.FindStringSubmatch(tok)
		expr, formatSpec := g[1], g[2]
		expr = substituteBareRefs(m, expr, combo)

		value, err := session.Eval(ctx, expr)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("formula %q failed to evaluate: %v", tok, err))
			return tok
		}
		if formatSpec != "" {
			if formatted, ok := applyFormat(value, formatSpec); ok {
				return formatted
			}
		}
		return value
	})

	return out, warnings, nil
}

// contextLines finds every "commentline + formula_prefix" prefixed line,
// stripping the optional ':'/'?' tag.
func contextLines(pat patterns, text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		g := pat.contextLine.FindStringSubmatch(raw)
		if g == nil {
			continue
		}
		lines = append(lines, g[2])
	}
	return lines
}

// dedent removes the minimal common leading whitespace across all
// non-empty lines, so context-line code that was written flush with a "#@"
// margin stays syntactically valid once joined.
func dedent(code string) string {
	lines := strings.Split(code, "\n")
	minIndent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := len(l) - len(strings.TrimLeft(l, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return code
	}
	for i, l := range lines {
		if len(l) >= minIndent {
			lines[i] = l[minIndent:]
		}
	}
	return strings.Join(lines, "\n")
}

// substituteBareRefs replaces every "$name" inside a formula expression
// with the current value's literal text, per spec.md §4.1 ("any $<name>
// inside <expr> is literally replaced by the current value").
func substituteBareRefs(m model.Model, expr string, combo map[string]any) string {
	bare := buildPatterns(m).bareVar
	return bare.ReplaceAllStringFunc(expr, func(tok string) string {
		name := tok[len(m.VarPrefix):]
		if v, ok := combo[name]; ok {
			return fmt.Sprint(v)
		}
		return tok
	})
}

// applyFormat truncates/formats a numeric result as decimal text with the
// requested number of digits after the dot, per spec.md §4.1.
func applyFormat(value, spec string) (string, bool) {
	digits, err := strconv.Atoi(spec)
	if err != nil {
		return "", false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', digits, 64), true
}
