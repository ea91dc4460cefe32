package suite

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/go-test/deep"

	"github.com/roach88/tappedout/internal/tap"
)

// Expect passes when expected and actual are structurally equal. On a
// mismatch the failing line is followed by an "Unmet expectation" block
// carrying both values and the differences found.
func (t *T) Expect(expected, actual any, msg string, d ...tap.Directive) {
	if reflect.DeepEqual(expected, actual) {
		t.Pass(msg, d...)
		return
	}

	// deep skips unexported fields and rounds floats, so it only describes
	// a mismatch that reflect already found.
	var diff any = fmt.Sprintf("%#v != %#v", expected, actual)
	if diffs := deep.Equal(expected, actual); len(diffs) > 0 {
		diff = diffs
	}

	t.record(false, msg, tap.Resolve(t.directive, d...), tap.Diag(
		"message", "Unmet expectation",
		"severity", "fail",
		"expected", expected,
		"actual", actual,
		"diff", diff,
	))
}

// Throws passes when fn fails, either by returning an error or by
// panicking.
func (t *T) Throws(fn func() error, msg string, d ...tap.Directive) {
	if raised, _ := Invoke(fn); raised != nil {
		t.Pass(msg, d...)
		return
	}
	t.Fail(msg, d...)
}

// DoesNotThrow passes when fn completes without error. On failure the
// captured error and, for panics, the stack trace are attached.
func (t *T) DoesNotThrow(fn func() error, msg string, d ...tap.Directive) {
	raised, stack := Invoke(fn)
	if raised == nil {
		t.Pass(msg, d...)
		return
	}

	diag := tap.Diag("error", raised.Error())
	if stack != "" {
		diag = diag.With("stack", stack)
	}
	t.record(false, msg, tap.Resolve(t.directive, d...), diag)
}

// PanicError is a recovered panic.
type PanicError struct {
	Value any
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Invoke calls fn and converts a panic into a *PanicError. The stack is
// only captured for panics.
func Invoke(fn func() error) (err error, stack string) {
	if fn == nil {
		return nil, ""
	}
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Value: r, Stack: string(debug.Stack())}
			err, stack = pe, pe.Stack
		}
	}()
	return fn(), ""
}

// describe splits err into the short text for the result line and the
// full text for the diagnostic block.
func describe(err error) (short, full string) {
	full = err.Error()
	short, _, _ = strings.Cut(full, "\n")
	return short, full
}
