// Package errors carries coded errors so API callers can branch on the
// rejection reason without string matching.
package errors

import (
	"github.com/pkg/errors"
)

// Code identifies why a request was rejected.
type Code string

const (
	// Submission-time rejections; no job record is persisted for these.
	CycleDetected          Code = "CYCLE_DETECTED"
	UnknownParent          Code = "UNKNOWN_PARENT"
	UnsatisfiableResources Code = "UNSATISFIABLE_RESOURCES"
	InvalidSpec            Code = "INVALID_SPEC"

	NotFound        Code = "NOT_FOUND"
	AlreadyTerminal Code = "ALREADY_TERMINAL"
)

// CodedError pairs a Code with the underlying error.
type CodedError struct {
	code Code
	error
}

// NewError wraps err with a code. Returns nil if err is nil.
func NewError(err error, code Code) *CodedError {
	if err == nil {
		return nil
	}
	return &CodedError{code, err}
}

// Errorf constructs a coded error from a format string.
func Errorf(code Code, format string, args ...interface{}) *CodedError {
	return &CodedError{code, errors.Errorf(format, args...)}
}

func (e *CodedError) GetCode() Code {
	if e == nil {
		return ""
	}
	return e.code
}

func (e *CodedError) Unwrap() error {
	return e.error
}

// GetCode extracts the Code from err, or "" if err carries none.
func GetCode(err error) Code {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.GetCode()
	}
	return ""
}
