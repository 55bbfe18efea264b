package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

const (
	// ErrNotFound reports an unknown negotiation/proposal/team/agent/role id.
	ErrNotFound ErrorCode = "NOT_FOUND"

	// ErrInvalidTransition reports an operation against a state that does not
	// permit it, e.g. responding to a non-active negotiation.
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// ErrNotAParticipant reports an actor that is neither initiator nor
	// participant of a negotiation.
	ErrNotAParticipant ErrorCode = "NOT_A_PARTICIPANT"

	// ErrUnknownStrategy reports an unknown strategy name. Callers substitute
	// a documented default and log a warning rather than failing.
	ErrUnknownStrategy ErrorCode = "UNKNOWN_STRATEGY"

	// ErrUnderMinTeamSize reports a team below the task's minimum size.
	// Non-fatal: the team is still returned.
	ErrUnderMinTeamSize ErrorCode = "UNDER_MIN_TEAM_SIZE"

	// ErrUncoveredCapabilities reports required capabilities no member
	// covers. Non-fatal: the team is still returned.
	ErrUncoveredCapabilities ErrorCode = "UNCOVERED_CAPABILITIES"

	// ErrEmptyInput reports a nil/empty task or agent pool.
	ErrEmptyInput ErrorCode = "EMPTY_INPUT"

	// ErrInvalidResponse reports a response value outside accept/reject/counter.
	ErrInvalidResponse ErrorCode = "INVALID_RESPONSE"

	// ErrNoCompromise reports a negotiation type with no compromise strategy.
	ErrNoCompromise ErrorCode = "NO_COMPROMISE"
)

// Error is a structured error with a code, message and optional cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// GetErrorCode extracts the error code from an error, "" for foreign errors.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given engine error code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
