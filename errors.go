package wikidata

import (
	"errors"
	"fmt"
)

// Error type constants used in ClientError.Type. They form a closed set:
// every failure the client can surface belongs to exactly one of them.
const (
	// ErrorTypeConfig marks construction-time or call-time configuration
	// problems (invalid User-Agent, unsupported response format). Never
	// retried; no network I/O has happened when it is returned.
	ErrorTypeConfig = "Config"

	// ErrorTypeNetwork marks connection failures, timeouts, and transient
	// server errors that survived the transport-level retry budget. The
	// underlying cause is available via Unwrap.
	ErrorTypeNetwork = "Network"

	// ErrorTypeRateLimit marks a 429 response after the rate-limit retry
	// budget is exhausted.
	ErrorTypeRateLimit = "RateLimit"

	// ErrorTypeHTTP marks any other non-2xx, non-429, non-transient status.
	ErrorTypeHTTP = "HTTP"

	// ErrorTypeProtocol marks a 2xx response whose body could not be decoded
	// into the requested shape.
	ErrorTypeProtocol = "Protocol"
)

// ClientError is the error value returned by all client operations.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	StatusCode int
	Attempt    int
	MaxRetries int
	Method     string
	URL        string
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxRetries+1)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is, so callers can match against
// &ClientError{Type: ErrorTypeRateLimit} without caring about the rest of
// the fields.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// IsConfig reports whether err is a configuration failure.
func IsConfig(err error) bool { return hasType(err, ErrorTypeConfig) }

// IsNetwork reports whether err is a network-class failure (connectivity,
// timeout, or exhausted transient retries).
func IsNetwork(err error) bool { return hasType(err, ErrorTypeNetwork) }

// IsRateLimited reports whether err is an exhausted 429 retry budget.
func IsRateLimited(err error) bool { return hasType(err, ErrorTypeRateLimit) }

// IsHTTPStatus reports whether err is a non-retryable HTTP status failure.
func IsHTTPStatus(err error) bool { return hasType(err, ErrorTypeHTTP) }

// IsProtocol reports whether err is a malformed-response failure.
func IsProtocol(err error) bool { return hasType(err, ErrorTypeProtocol) }

func hasType(err error, errorType string) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == errorType
}
