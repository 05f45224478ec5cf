package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError is a recovered panic. Fold workers run under SafeExecute so a
// panic in one fold is reported on that fold alone.
type PanicError struct {
	Operation  string
	PanicValue any
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String includes the stack captured at recovery.
func (e *PanicError) String() string {
	return e.Error() + "\nStack trace:\n" + e.StackTrace
}

func NewPanicError(operation string, panicValue any) *PanicError {
	return &PanicError{Operation: operation, PanicValue: panicValue, StackTrace: string(debug.Stack())}
}

// Recover turns a panic into *err. It must be deferred directly by the
// function owning the named result:
//
//	func evaluateFold() (err error) {
//	    defer Recover(&err, "fold 3")
//	    ...
//	}
//
// An error already stored in *err stays in the chain.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute runs fn, returning its error or the recovered panic.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
