// Package evaluator implements the pluggable expression-evaluation
// capability described in spec.md §9 (DESIGN NOTES, "Dynamic interpreter
// embedding"): the template engine never assumes it shares an address
// space with the host-language interpreter, it only depends on this
// narrow Session interface. The two line-protocol implementations
// (pyproc, rproc) drive a real subprocess, grounded on
// core/decorator/local_session.go's os/exec usage and exec.go's narrow
// Session abstraction.
package evaluator

import "context"

// Session is one interpreter session seeded with a var_combo. Context
// lines (declarations) are executed with Exec; formula occurrences are
// evaluated with Eval, in the same session so later formulas see earlier
// declarations, per spec.md §4.1.
type Session interface {
	// Exec runs a block of joined, dedented context-line code for its
	// side effects (e.g. "import math"). It never produces a value.
	Exec(ctx context.Context, code string) error

	// Eval evaluates a single expression and returns its textual
	// representation.
	Eval(ctx context.Context, expr string) (string, error)

	// Close releases the underlying interpreter process.
	Close() error
}

// Factory opens a new Session seeded with the given bindings (one entry
// per var_combo name). Implementations that cannot run (interpreter
// binary missing from PATH) return ErrUnavailable.
type Factory interface {
	Open(ctx context.Context, bindings map[string]any) (Session, error)
}

// ErrUnavailable signals that an interpreter's binary was not found and
// the caller should skip evaluation and emit one warning, per spec.md
// §4.1 ("Interpreters").
type ErrUnavailable struct {
	Interpreter string
}

func (e *ErrUnavailable) Error() string {
	return "interpreter " + e.Interpreter + " unavailable"
}

// ForInterpreter resolves the Factory for a model's configured
// interpreter name ("python" or "r"). Any name other than "r" gets the
// PythonFactory.
func ForInterpreter(name string) Factory {
	switch name {
	case "r":
		return RFactory{}
	default:
		return PythonFactory{}
	}
}
