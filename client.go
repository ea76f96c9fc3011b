package wikidata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the public Wikidata Query Service SPARQL endpoint.
const DefaultEndpoint = "https://query.wikidata.org/sparql"

// Default retry and timeout knobs, matching the endpoint's documented
// expectations for well-behaved clients.
const (
	DefaultMaxRetries       = 5
	DefaultInitialBackoff   = 500 * time.Millisecond
	DefaultMaxBackoff       = 2 * time.Minute
	DefaultRateLimitRetries = 3
	DefaultTimeout          = 70 * time.Second
)

// Client executes SPARQL queries against a single endpoint with layered
// retry handling. It is immutable after construction and safe for
// concurrent use: each call keeps its own attempt state.
type Client struct {
	endpoint         string
	userAgent        string
	retry            RetryPolicy
	rateLimitRetries int
	timeout          time.Duration
	httpClient       *http.Client
	rateLimiter      *RateLimiter
	metrics          *MetricsCollector
	logger           Logger

	// sleep is swapped out in tests to observe rate-limit waits.
	sleep func(context.Context, time.Duration) error
}

// New constructs a Client using the provided functional options. It fails
// without any network I/O when the configuration violates an invariant,
// most importantly the User-Agent policy: the identity string must be
// non-empty and descriptive, never the generic library default.
func New(options ...Option) (*Client, error) {
	c := &Client{
		endpoint:  DefaultEndpoint,
		userAgent: "",
		retry: RetryPolicy{
			Total:          DefaultMaxRetries,
			InitialBackoff: DefaultInitialBackoff,
			MaxBackoff:     DefaultMaxBackoff,
			Statuses:       defaultTransientStatuses(),
			Methods:        defaultRetryMethods(),
		},
		rateLimitRetries: DefaultRateLimitRetries,
		timeout:          DefaultTimeout,
		sleep:            sleepContext,
	}

	for _, option := range options {
		option(c)
	}

	if err := c.validateConfiguration(); err != nil {
		return nil, err
	}

	var next http.RoundTripper
	if c.httpClient != nil {
		next = c.httpClient.Transport
	}
	c.httpClient = &http.Client{
		Transport: newRetryTransport(next, c.retry, c.timeout, c.logger),
	}

	return c, nil
}

// QueryJSON runs a query expecting SPARQL JSON results.
func (c *Client) QueryJSON(ctx context.Context, query string) (*Results, error) {
	resp, err := c.Query(ctx, Request{Query: query, Format: FormatJSON})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// QueryCSV runs a query expecting CSV and returns the raw text.
func (c *Client) QueryCSV(ctx context.Context, query string) (string, error) {
	resp, err := c.Query(ctx, Request{Query: query, Format: FormatCSV})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Query executes a single query call and classifies the outcome. Transient
// server errors are absorbed below, by the transport; this loop only handles
// explicit rate limiting: on 429 it waits the server-dictated duration and
// reissues, up to the configured maximum. Every other outcome is terminal.
func (c *Client) Query(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	method := http.MethodGet
	if req.usePOST() {
		method = http.MethodPost
	}

	// Fail on an unsupported format before touching the network.
	if _, ok := acceptTypes[req.Format]; !ok {
		err := &ClientError{Type: ErrorTypeConfig, Message: fmt.Sprintf("unsupported response format %d; use FormatJSON or FormatCSV", req.Format)}
		c.recordError(err)
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordQueryStart(method)
		defer c.metrics.RecordQueryEnd(method)
	}

	maxAttempts := c.rateLimitRetries + 1
	for attempt := 1; ; attempt++ {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				clientErr := c.wrapNetwork("rate limiter wait interrupted", err, method, attempt)
				c.recordError(clientErr)
				return nil, clientErr
			}
		}

		httpReq, err := c.newHTTPRequest(ctx, req)
		if err != nil {
			c.recordError(err.(*ClientError))
			return nil, err
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			clientErr := c.wrapNetwork("request failed after retries", err, method, attempt)
			c.recordError(clientErr)
			return nil, clientErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			clientErr := c.wrapNetwork("reading response body failed", readErr, method, attempt)
			c.recordError(clientErr)
			return nil, clientErr
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= maxAttempts {
				clientErr := &ClientError{
					Type:       ErrorTypeRateLimit,
					Message:    fmt.Sprintf("maximum retries (%d) exceeded for 429 responses", c.rateLimitRetries),
					StatusCode: resp.StatusCode,
					Attempt:    attempt,
					MaxRetries: c.rateLimitRetries,
					Method:     method,
					URL:        c.endpoint,
				}
				c.recordError(clientErr)
				return nil, clientErr
			}

			wait := parseRetryAfter(resp.Header.Get("Retry-After"))
			if wait == 0 {
				wait = defaultRetryAfterWait
			}
			if c.logger != nil {
				c.logger.Warn("received HTTP 429, waiting before retry", "wait", wait, "attempt", attempt, "maxRetries", c.rateLimitRetries)
			}
			if c.metrics != nil {
				c.metrics.RecordRateLimitWait(method, wait)
			}
			if sleepErr := c.sleep(ctx, wait); sleepErr != nil {
				clientErr := c.wrapNetwork("rate limit wait interrupted", sleepErr, method, attempt)
				c.recordError(clientErr)
				return nil, clientErr
			}
			continue

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			out, decodeErr := c.decodeResponse(req.Format, resp.StatusCode, body)
			if decodeErr != nil {
				c.recordError(decodeErr.(*ClientError))
				return nil, decodeErr
			}
			if c.metrics != nil {
				c.metrics.RecordQuery(method, req.Format.String(), resp.StatusCode, time.Since(start))
			}
			if c.logger != nil {
				c.logger.Debug("query succeeded", "method", method, "format", req.Format.String(), "status", resp.StatusCode, "duration", time.Since(start))
			}
			return out, nil

		default:
			clientErr := &ClientError{
				Type:       ErrorTypeHTTP,
				Message:    fmt.Sprintf("server returned HTTP %d (%s)", resp.StatusCode, http.StatusText(resp.StatusCode)),
				StatusCode: resp.StatusCode,
				Method:     method,
				URL:        c.endpoint,
			}
			c.recordError(clientErr)
			return nil, clientErr
		}
	}
}

func (c *Client) decodeResponse(format Format, statusCode int, body []byte) (*Response, error) {
	switch format {
	case FormatCSV:
		return &Response{Format: format, StatusCode: statusCode, Text: string(body)}, nil
	default:
		results, err := decodeResults(body)
		if err != nil {
			return nil, err
		}
		return &Response{Format: format, StatusCode: statusCode, Results: results}, nil
	}
}

func (c *Client) wrapNetwork(message string, cause error, method string, attempt int) *ClientError {
	return &ClientError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		Cause:      cause,
		Attempt:    attempt,
		MaxRetries: c.rateLimitRetries,
		Method:     method,
		URL:        c.endpoint,
	}
}

func (c *Client) recordError(err *ClientError) {
	if c.metrics != nil {
		c.metrics.RecordError(err.Type)
	}
	if c.logger != nil {
		c.logger.Error("query failed", "type", err.Type, "error", err.Error())
	}
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// UserAgent returns the identity string sent with every request.
func (c *Client) UserAgent() string { return c.userAgent }
