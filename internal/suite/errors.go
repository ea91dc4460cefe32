package suite

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode categorizes fatal test errors.
type ErrorCode string

const (
	// ErrCodeTimeout indicates TimeoutAfter expired before the test ended.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodePlanMismatch indicates the declared plan did not match the
	// number of assertions that ran.
	ErrCodePlanMismatch ErrorCode = "PLAN_MISMATCH"

	// ErrCodeBail indicates an explicit Bail call.
	ErrCodeBail ErrorCode = "BAIL"

	// ErrCodeBodyFailure indicates the body returned an error or panicked.
	ErrCodeBodyFailure ErrorCode = "BODY_FAILURE"

	// ErrCodeAborted indicates EndWithError or an external cancellation.
	ErrCodeAborted ErrorCode = "ABORTED"
)

// DefaultBailMessage is used when Bail is called without a message.
const DefaultBailMessage = "unrecognized failure"

// Error is the resolution error of an aborted test. Every fatal condition
// is funneled through it so the run renders a single uniform bail line.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is rendered verbatim after "Bail out!".
	Message string

	// Test is the name of the test that aborted, if it had one.
	Test string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface. Only the message is returned so
// the bail line carries exactly what the test reported.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the error code of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsTimeout returns true if err is a timeout error.
func IsTimeout(err error) bool {
	return CodeOf(err) == ErrCodeTimeout
}

// IsPlanMismatch returns true if err is a plan mismatch error.
func IsPlanMismatch(err error) bool {
	return CodeOf(err) == ErrCodePlanMismatch
}

// IsBail returns true if err came from an explicit Bail.
func IsBail(err error) bool {
	return CodeOf(err) == ErrCodeBail
}

// NewTimeoutError creates the error reported when a timeout expires.
func NewTimeoutError(test string, d time.Duration) *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("Timed out after %dms", d.Milliseconds()),
		Test:    test,
	}
}

// NewPlanError creates the error reported when a plan is not met.
func NewPlanError(test string, planned, ran int) *Error {
	noun := "tests"
	if planned == 1 {
		noun = "test"
	}
	return &Error{
		Code:    ErrCodePlanMismatch,
		Message: fmt.Sprintf("Expected %d %s, %d ran.", planned, noun, ran),
		Test:    test,
	}
}

// NewBailError creates the error for an explicit bail.
func NewBailError(test, msg string) *Error {
	if msg == "" {
		msg = DefaultBailMessage
	}
	return &Error{
		Code:    ErrCodeBail,
		Message: msg,
		Test:    test,
	}
}

// NewBodyError wraps an error returned or raised by a test body. The
// message keeps only the first line of the error text.
func NewBodyError(test string, err error) *Error {
	short, _ := describe(err)
	return &Error{
		Code:    ErrCodeBodyFailure,
		Message: short,
		Test:    test,
		Err:     err,
	}
}

// asAbortError keeps *Error values and wraps anything else as ABORTED.
func asAbortError(test string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    ErrCodeAborted,
		Message: err.Error(),
		Test:    test,
		Err:     err,
	}
}
