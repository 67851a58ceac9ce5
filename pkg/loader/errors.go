package loader

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes loader errors.
type ErrorCode string

const (
	ErrorCodeInput ErrorCode = "input"
	ErrorCodeIO    ErrorCode = "io"
	ErrorCodeParse ErrorCode = "parse"
)

// SpecError is returned for every document loading failure.
type SpecError struct {
	Code    ErrorCode
	Message string
	// Source is the file path, "inline" or "spec:<name>".
	Source string
	Cause  error
}

func (e *SpecError) Error() string {
	msg := e.Message
	if e.Source != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Source)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SpecError) Unwrap() error { return e.Cause }

// IsCode reports whether err is a *SpecError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *SpecError
	return errors.As(err, &se) && se.Code == code
}
