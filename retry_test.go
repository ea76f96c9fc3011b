package wikidata

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"PlainSeconds", "120", 120 * time.Second},
		{"SingleSecond", "1", time.Second},
		{"Whitespace", "  30  ", 30 * time.Second},
		{"Zero", "0", 0},
		{"Negative", "-5", 0},
		{"Empty", "", 0},
		{"Garbage", "soon", 0},
		{"CappedAtOneHour", "7200", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.value); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	got := parseRetryAfter(future)
	if got < 80*time.Second || got > 91*time.Second {
		t.Errorf("parseRetryAfter(future date) = %v, want about 90s", got)
	}

	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(past); got != 0 {
		t.Errorf("parseRetryAfter(past date) = %v, want 0", got)
	}

	farFuture := time.Now().Add(3 * time.Hour).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(farFuture); got != time.Hour {
		t.Errorf("parseRetryAfter(far future date) = %v, want cap at 1h", got)
	}
}

func TestRetryPolicyRetryable(t *testing.T) {
	policy := RetryPolicy{Statuses: defaultTransientStatuses()}

	for _, code := range []int{500, 502, 503, 504} {
		if !policy.retryable(code) {
			t.Errorf("status %d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 404, 429, 501} {
		if policy.retryable(code) {
			t.Errorf("status %d should not be retryable", code)
		}
	}
}
