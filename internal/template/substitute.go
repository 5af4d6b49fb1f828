package template

import (
	"fmt"

	"github.com/Funz/fz-sub001/internal/model"
)

// Substitute applies spec.md §4.1 ("Variable substitution") to text, given
// a fully scalar var_combo. It returns the substituted text and any
// warnings (one per unbound delimited variable that fell back to its
// default).
func Substitute(m model.Model, text string, combo map[string]string) (string, []string) {
	pat := buildPatterns(m)
	var warnings []string

	if pat.hasDelim {
		text = pat.delimVar.ReplaceAllStringFunc(text, func(tok string) string {
			g := pat.delimVar.FindStringSubmatch(tok)
			name, def, hasDefault := g[1], g[2], g[2] != "" || hasTilde(tok)
			if v, ok := combo[name]; ok {
				return v
			}
			if hasDefault {
				warnings = append(warnings, fmt.Sprintf("variable %q unbound, using default %q", name, def))
				return def
			}
			return tok
		})
	}

	text = pat.bareVar.ReplaceAllStringFunc(text, func(tok string) string {
		g := pat.bareVar.FindStringSubmatch(tok)
		name := g[1]
		if v, ok := combo[name]; ok {
			return v
		}
		return tok
	})

	return text, warnings
}

// hasTilde reports whether a matched delimited token actually carried a
// "~default" segment (needed because FindStringSubmatch's capture group 2
// is "" both when there was no default and when the default itself was the
// empty string).
func hasTilde(tok string) bool {
	for i, r := range tok {
		if r == '~' {
			return true
		}
		_ = i
	}
	return false
}
