// Package errors provides structured error types for the mockup engine.
//
// Every failure that can reach a user command is expressed as an [*Error]
// carrying a machine-readable [Code]. Command handlers in package design
// catch these at the operation boundary and turn them into non-blocking
// notifications; none of them leave the layer stacks in a partial state.
//
// # Error Codes
//
//   - RESOURCE_LOAD_FAILURE: a base garment image or user image failed to load
//   - UNSUPPORTED: a capability is unavailable (e.g. background removal)
//   - PAYLOAD_TOO_LARGE: a serialized payload exceeded the byte ceiling
//   - PERSISTENCE_FAILURE: a save or cart call was rejected
//   - VALIDATION_FAILURE: a required selection is missing or invalid
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "no color selected")
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // refuse the operation up front
//	}
//
//	err := errors.Wrap(errors.ErrCodePersistence, cause, "save design")
package errors

import (
	"errors"
	"fmt"
)

// Code is the machine-readable kind of an [*Error].
type Code string

const (
	ErrCodeResourceLoad Code = "RESOURCE_LOAD_FAILURE"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
	ErrCodePayloadSize  Code = "PAYLOAD_TOO_LARGE"
	ErrCodePersistence  Code = "PERSISTENCE_FAILURE"
	ErrCodeValidation   Code = "VALIDATION_FAILURE"

	// Codes below are used by the API and store layers only.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Advisory reports whether failures of this kind leave the caller's flow
// running: a missing image still lets the design continue without it.
func (c Code) Advisory() bool {
	return c == ErrCodeResourceLoad || c == ErrCodeUnsupported
}

// Error is a coded failure with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes the standard library's errors.Is match two errors by code:
//
//	errors.Is(err, &Error{Code: ErrCodeNotFound})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Code == e.Code
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// as finds the outermost *Error in err's chain.
func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has code. A
// validation failure rewrapped as a persistence failure matches only the
// latter.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the outermost *Error, or "".
func GetCode(err error) Code {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage is the message without code prefix or cause, or err.Error()
// for uncoded errors.
func UserMessage(err error) string {
	if e, ok := as(err); ok {
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err should abort the command that produced it.
// Advisory codes never do.
func Fatal(err error) bool {
	return err != nil && !GetCode(err).Advisory()
}
