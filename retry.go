package wikidata

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy configures the transport-level retry loop for transient
// server errors. It is fixed at client construction and shared by every
// request issued through that client.
type RetryPolicy struct {
	// Total is the number of attempts, including the first one.
	Total int

	// InitialBackoff is the base wait; attempt n sleeps
	// InitialBackoff × 2^(n−1) before retrying.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed wait.
	MaxBackoff time.Duration

	// Statuses is the set of response codes treated as transient.
	Statuses map[int]bool

	// Methods is the set of HTTP methods eligible for transport retry.
	Methods map[string]bool
}

// defaultTransientStatuses returns the fixed transient set. 429 is absent
// deliberately: rate limiting is the orchestrator's concern.
func defaultTransientStatuses() map[int]bool {
	return map[int]bool{
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}
}

func defaultRetryMethods() map[string]bool {
	return map[string]bool{
		http.MethodGet:  true,
		http.MethodPost: true,
	}
}

// retryable reports whether a response status is eligible for transport
// retry under this policy.
func (p RetryPolicy) retryable(statusCode int) bool {
	return p.Statuses[statusCode]
}

// defaultRetryAfterWait is used when a 429 response carries no parsable
// Retry-After header.
const defaultRetryAfterWait = 10 * time.Second

// maxRetryAfterWait caps server-dictated waits so a misbehaving endpoint
// cannot park the caller indefinitely.
const maxRetryAfterWait = time.Hour

// parseRetryAfter parses a Retry-After header value, supporting both
// delay-seconds and HTTP-date forms. It returns 0 when the value is absent
// or unparsable; the caller applies the default.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds > 0 {
			delay := time.Duration(seconds) * time.Second
			if delay > maxRetryAfterWait {
				delay = maxRetryAfterWait
			}
			return delay
		}
		return 0
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 {
			if delay > maxRetryAfterWait {
				delay = maxRetryAfterWait
			}
			return delay
		}
	}

	return 0
}
