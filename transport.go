package wikidata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	internalbackoff "github.com/0xConstant1/Wikidata-Fetcher/internal/backoff"
)

// Context keys for per-request transport control
type contextKey string

const attemptTimeoutKey contextKey = "wikidata_attempt_timeout"

// withAttemptTimeout overrides the per-attempt timeout for a single request.
func withAttemptTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, attemptTimeoutKey, d)
}

// retryTransport is an http.RoundTripper that absorbs transient server
// errors (5xx) with exponential backoff. Callers above it only ever see the
// final outcome: a response outside the transient set, or a network error
// once the attempt budget is spent. 429 passes through untouched.
type retryTransport struct {
	next    http.RoundTripper
	policy  RetryPolicy
	timeout time.Duration
	backoff *internalbackoff.Calculator
	sleep   func(context.Context, time.Duration) error
	logger  Logger
}

func newRetryTransport(next http.RoundTripper, policy RetryPolicy, timeout time.Duration, logger Logger) *retryTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &retryTransport{
		next:    next,
		policy:  policy,
		timeout: timeout,
		backoff: internalbackoff.Exponential(),
		sleep:   sleepContext,
		logger:  logger,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.policy.Methods[req.Method] {
		return t.attempt(req)
	}

	total := t.policy.Total
	if total < 1 {
		total = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := t.attempt(req)
		switch {
		case err != nil:
			lastErr = err
			if ctxErr := req.Context().Err(); ctxErr != nil {
				// Caller is gone; backoff would only delay the bad news.
				return nil, lastErr
			}
		case !t.policy.retryable(resp.StatusCode):
			return resp, nil
		default:
			lastErr = fmt.Errorf("server returned HTTP %d", resp.StatusCode)
			drain(resp)
		}

		if attempt >= total {
			return nil, fmt.Errorf("giving up after %d attempt(s): %w", total, lastErr)
		}

		wait := t.backoff.Calculate(attempt, t.policy.InitialBackoff, t.policy.MaxBackoff)
		if t.logger != nil {
			t.logger.Debug("transient failure, retrying", "attempt", attempt, "total", total, "backoff", wait, "error", lastErr.Error())
		}
		if sleepErr := t.sleep(req.Context(), wait); sleepErr != nil {
			return nil, fmt.Errorf("giving up after %d attempt(s): %w", attempt, lastErr)
		}
	}
}

// attempt issues one request bounded by the per-attempt timeout, replaying
// the body when the original request carried one.
func (t *retryTransport) attempt(req *http.Request) (*http.Response, error) {
	timeout := t.timeout
	if d, ok := req.Context().Value(attemptTimeoutKey).(time.Duration); ok && d > 0 {
		timeout = d
	}

	ctx := req.Context()
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	r := req.Clone(ctx)
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			cancel()
			return nil, err
		}
		r.Body = body
	}

	resp, err := t.next.RoundTrip(r)
	if err != nil {
		cancel()
		return nil, err
	}

	// The attempt deadline must outlive RoundTrip so the body can be read;
	// tie its cancellation to body close instead.
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// drain discards and closes a response body so the underlying connection
// can be reused for the next attempt.
func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
