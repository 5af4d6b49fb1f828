// Package invariant provides lightweight contract assertions for fz.
//
// Precondition/Postcondition/Invariant all panic on violation: these guard
// programmer errors (a caller breaking a documented contract), never
// ordinary runtime failures like a missing file or a failed SSH dial --
// those are reported through normal error returns.
package invariant

import "fmt"

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal consistency condition.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if v is nil. name is used in the panic message.
func NotNil(v interface{}, name string) {
	if v == nil {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func fail(kind, format string, args ...interface{}) {
	panic(fmt.Sprintf("%s VIOLATION: %s", kind, fmt.Sprintf(format, args...)))
}
