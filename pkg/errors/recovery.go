package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError は recover した panic を error として扱うための型
type PanicError struct {
	Operation  string
	PanicValue interface{}
	StackTrace string // debug.Stack() の出力
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Recover must be deferred directly. A recovered panic becomes a PanicError
// in *err, or wraps *err when it is already set.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = &PanicError{Operation: operation, PanicValue: r, StackTrace: string(debug.Stack())}
}

// SafeExecute runs fn and returns its error, or a PanicError if fn panics.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
