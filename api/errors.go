// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-handoff.

package api

import (
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock is the control-flow signal for a non-blocking operation that
// cannot make progress right now. It is not a failure.
var ErrWouldBlock = iox.ErrWouldBlock

// Common errors used across the library.
var (
	ErrFull             = fmt.Errorf("queue full: %w", ErrWouldBlock)
	ErrQueueClosed      = fmt.Errorf("queue is closed")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrNotSupported     = fmt.Errorf("operation not supported")
	ErrNotFound         = fmt.Errorf("resource not found")
	ErrLoopClosed       = fmt.Errorf("event loop is closed")
	ErrLoopRunning      = fmt.Errorf("event loop is already running")
	ErrReactorClosed    = fmt.Errorf("reactor is closed")
	ErrBackendMismatch  = fmt.Errorf("pollable is not supported by this reactor")
	ErrUnknownBackend   = fmt.Errorf("unknown reactor backend")
	ErrProtocolViolated = fmt.Errorf("protocol violation")
)

// IsWouldBlock reports whether err means "try again later" (full or empty).
// Wrapped errors are recognized.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeProtocolViolation
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeProtocolViolation:
		return "protocol_violation"
	default:
		return "internal"
	}
}

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

// Unwrap lets errors.Is match protocol violations against ErrProtocolViolated.
func (e *Error) Unwrap() error {
	if e.Code == ErrCodeProtocolViolation {
		return ErrProtocolViolated
	}
	return nil
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
