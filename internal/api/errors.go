package api

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per gateway operation. Every *Error returned by the
// Client matches exactly one of them through errors.Is.
var (
	// ErrNetwork indicates the article list could not be fetched.
	ErrNetwork = errors.New("network error")

	// ErrSubmission indicates an article submission was rejected or failed.
	ErrSubmission = errors.New("submission error")

	// ErrDeletion indicates an article could not be deleted.
	ErrDeletion = errors.New("deletion error")

	// ErrSynthesis indicates a voice sample could not be synthesized.
	ErrSynthesis = errors.New("synthesis error")
)

// ErrorCode identifies which gateway operation failed.
type ErrorCode string

const (
	ErrorCodeNetwork    ErrorCode = "NETWORK"
	ErrorCodeSubmission ErrorCode = "SUBMISSION"
	ErrorCodeDeletion   ErrorCode = "DELETION"
	ErrorCodeSynthesis  ErrorCode = "SYNTHESIS"
)

// Error is returned by every Client operation. Message is the user-facing
// text; Cause holds the transport or decoding error, if any.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int // 0 when no response was received
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's code.
func (e *Error) Is(target error) bool {
	return target == e.Code.sentinel()
}

func (c ErrorCode) sentinel() error {
	switch c {
	case ErrorCodeNetwork:
		return ErrNetwork
	case ErrorCodeSubmission:
		return ErrSubmission
	case ErrorCodeDeletion:
		return ErrDeletion
	case ErrorCodeSynthesis:
		return ErrSynthesis
	default:
		return nil
	}
}

func newError(code ErrorCode, message string, status int, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// Message returns the user-facing message of err: the Message of an *Error
// anywhere in the chain, or err's own text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
