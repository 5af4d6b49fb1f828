// Package template implements fz's variable discovery/substitution engine
// and the evaluation of inline host-language expressions embedded in
// comment-prefixed context lines (spec.md §4.1).
//
// The regex-building here is grounded on the token-classification style of
// runtime/lexer/lexer.go: small, named predicate/pattern builders rather
// than one large hand-rolled scanner, per the REDESIGN FLAGS guidance to
// make token classes auditable in isolation.
package template

import (
	"regexp"

	"github.com/Funz/fz-sub001/internal/model"
)

const nameClass = `[A-Za-z_][A-Za-z0-9_]*`

// patterns bundles the compiled regexes derived from one Model's
// prefix/delimiter configuration.
type patterns struct {
	bareVar     *regexp.Regexp // <prefix><name>
	delimVar    *regexp.Regexp // <prefix><L><name>(~<default>)?<R>
	hasDelim    bool
	contextLine *regexp.Regexp // stripped-prefix match for "commentline + formula_prefix"
	delimFormula *regexp.Regexp // <formula_prefix><L><expr>(|<format>)?<R>
}

func buildPatterns(m model.Model) patterns {
	p := patterns{
		bareVar: regexp.MustCompile(regexp.QuoteMeta(m.VarPrefix) + `(` + nameClass + `)`),
	}

	if m.VarDelimL != "" && m.VarDelimR != "" {
		p.hasDelim = true
		l, r := regexp.QuoteMeta(m.VarDelimL), regexp.QuoteMeta(m.VarDelimR)
		p.delimVar = regexp.MustCompile(
			regexp.QuoteMeta(m.VarPrefix) + l + `(` + nameClass + `)(?:~([^` + regexp.QuoteMeta(m.VarDelimR) + `]*))?` + r,
		)
	}

	p.contextLine = regexp.MustCompile(`^\s*` + regexp.QuoteMeta(m.CommentLine) + regexp.QuoteMeta(m.FormulaPrefix) + `([:?])?\s?(.*)$`)

	if m.FormulaDelimL != "" && m.FormulaDelimR != "" {
		l, r := regexp.QuoteMeta(m.FormulaDelimL), regexp.QuoteMeta(m.FormulaDelimR)
		p.delimFormula = regexp.MustCompile(
			regexp.QuoteMeta(m.FormulaPrefix) + l + `([^` + regexp.QuoteMeta(m.FormulaDelimR) + `]*?)(?:\|([0-9]+))?` + r,
		)
	}

	return p
}
