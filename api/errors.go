// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for serbridge.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	// ErrWouldBlock reports that a non-blocking operation cannot make progress now.
	ErrWouldBlock = errors.New("operation would block")
	// ErrInterrupted reports a call interrupted by a signal; retry it.
	ErrInterrupted = errors.New("operation interrupted")

	ErrTransportClosed = fmt.Errorf("transport is closed")
	ErrTransportFault  = fmt.Errorf("transport reported an error condition")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotSupported    = fmt.Errorf("operation not supported")
	ErrNotFound        = fmt.Errorf("resource not found")
)

// IsTransient reports whether err is one of the retryable conditions that
// never terminate a session.
func IsTransient(err error) bool {
	return errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrInterrupted)
}

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeInvalidArgument ErrorCode = iota + 1
	ErrCodeNotSupported
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Is lets errors.Is match a structured error against the sentinel of its code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ErrCodeInvalidArgument:
		return target == ErrInvalidArgument
	case ErrCodeNotSupported:
		return target == ErrNotSupported
	}
	return false
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
