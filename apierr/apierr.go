package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Error represents a failed call to a downstream service.
//
// Status is the HTTP status code when a response was received, or zero for
// failures that happened before any response (connection reset, timeout).
// RetryAfter carries a server-supplied delay hint when the service sent one
// (typically with 429 or 503); zero means no hint.
type Error struct {
	Status     int
	Message    string
	RetryAfter time.Duration
	Transient  bool
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("api error: status %d", e.Status)
	case e.Message != "":
		return "api error: " + e.Message
	case e.Err != nil:
		return "api error: " + e.Err.Error()
	default:
		return "api error"
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTransient wraps a network-level failure (connection reset, DNS failure,
// timeout) that never produced an HTTP response. Transient errors are always
// retryable.
func NewTransient(msg string, cause error) *Error {
	return &Error{Message: msg, Transient: true, Err: cause}
}

// FromStatus builds an Error from an HTTP status code.
func FromStatus(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

// RateLimited builds a 429 error carrying the server's Retry-After hint.
func RateLimited(retryAfter time.Duration, msg string) *Error {
	return &Error{Status: 429, Message: msg, RetryAfter: retryAfter}
}

// Retryable reports whether err represents a failure worth repeating:
// a transient network error, a timeout, HTTP 429, or HTTP 5xx.
// Client errors (4xx other than 429) and unclassified errors are fatal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var ae *Error
	if errors.As(err, &ae) {
		if ae.Transient {
			return true
		}
		return ae.Status == 429 || ae.Status >= 500
	}

	// A timed-out attempt is a retryable network failure.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	return false
}

// RetryAfterHint returns the server-supplied retry delay attached to err,
// if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae.RetryAfter > 0 {
		return ae.RetryAfter, true
	}
	return 0, false
}
