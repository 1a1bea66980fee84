package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorType classifies failures surfaced by the feed API and the media host
type ErrorType string

const (
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeClient      ErrorType = "client"
	ErrorTypeContentGone ErrorType = "content_gone"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a classified upstream API error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a classified error
func New(errorType ErrorType, code int, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Code:    code,
	}
}

// TypeOf returns the classification of err, or ErrorTypeUnknown for
// errors that did not originate at the API boundary.
func TypeOf(err error) ErrorType {
	if apiErr, ok := err.(*Error); ok {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsNotFound reports whether err is a "does not exist" outcome
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsContentGone reports whether err marks media no longer available upstream
func IsContentGone(err error) bool {
	return TypeOf(err) == ErrorTypeContentGone
}

// RetryExhaustedError is returned after every permitted attempt of a
// retryable operation has failed. Attempts maps attempt index (starting
// at 1) to the error that attempt produced.
type RetryExhaustedError struct {
	MaxAttempts int
	Attempts    map[int]error
}

func (e *RetryExhaustedError) Error() string {
	indexes := make([]int, 0, len(e.Attempts))
	for idx := range e.Attempts {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var sb strings.Builder
	fmt.Fprintf(&sb, "retry limit reached after %d attempts", e.MaxAttempts)
	for _, idx := range indexes {
		fmt.Fprintf(&sb, "; attempt %d: %v", idx, e.Attempts[idx])
	}
	return sb.String()
}

// Unwrap exposes the final attempt's error for errors.Is/As chains
func (e *RetryExhaustedError) Unwrap() error {
	return e.Attempts[len(e.Attempts)]
}

// IsRetryExhausted reports whether err is a retry-limit failure
func IsRetryExhausted(err error) bool {
	_, ok := err.(*RetryExhaustedError)
	return ok
}
