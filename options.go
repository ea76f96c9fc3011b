package wikidata

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Option represents a configuration option.
type Option func(*Client)

// WithUserAgent sets the identity string sent with every request. The
// Wikimedia User-Agent policy requires a descriptive value naming the tool
// and a contact; generic library defaults are rejected at construction.
// See https://meta.wikimedia.org/wiki/User-Agent_policy
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithEndpoint sets the SPARQL endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithMaxRetries sets the total attempt count for transient server errors
// (500, 502, 503, 504), including the initial attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.retry.Total = n
	}
}

// WithInitialBackoff sets the base wait for the transient retry schedule;
// retry n waits base × 2^(n−1).
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.retry.InitialBackoff = d
	}
}

// WithMaxBackoff caps the transient retry wait.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.retry.MaxBackoff = d
	}
}

// WithRateLimitRetries sets how many times a 429 response is retried after
// the initial attempt. Zero means a single attempt: any 429 is immediately
// terminal.
func WithRateLimitRetries(n int) Option {
	return func(c *Client) {
		c.rateLimitRetries = n
	}
}

// WithTimeout sets the default per-attempt timeout. Individual requests may
// override it via Request.Timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient supplies the underlying HTTP client whose transport the
// retry layer wraps. Connection pooling settings live here.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimiter enables a client-side token bucket that blocks before
// each call until a slot is free. It complements, not replaces, the
// server's 429 signal.
func WithRateLimiter(maxTokens int, refillInterval time.Duration) Option {
	return func(c *Client) {
		c.rateLimiter = NewRateLimiter(maxTokens, refillInterval)
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets a logger for retry and failure diagnostics.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// genericUserAgents are identity substrings that violate the endpoint's
// policy: they identify the HTTP library, not the caller.
var genericUserAgents = []string{
	"go-http-client",
	"python-requests",
}

// validateConfiguration checks construction invariants and returns a
// configuration error naming every violation.
func (c *Client) validateConfiguration() error {
	var problems []string

	problems = append(problems, c.validateUserAgent()...)
	problems = append(problems, c.validateEndpoint()...)
	problems = append(problems, c.validateRetryConfig()...)

	if len(problems) > 0 {
		return &ClientError{
			Type:    ErrorTypeConfig,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}
	return nil
}

func (c *Client) validateUserAgent() []string {
	var problems []string

	trimmed := strings.TrimSpace(c.userAgent)
	if trimmed == "" {
		problems = append(problems, "a descriptive User-Agent is required per the endpoint's policy; see https://meta.wikimedia.org/wiki/User-Agent_policy")
		return problems
	}

	lowered := strings.ToLower(trimmed)
	for _, generic := range genericUserAgents {
		if strings.Contains(lowered, generic) {
			problems = append(problems, fmt.Sprintf("User-Agent must not contain the generic library identifier %q", generic))
		}
	}

	return problems
}

func (c *Client) validateEndpoint() []string {
	var problems []string

	if c.endpoint == "" {
		problems = append(problems, "endpoint must not be empty")
		return problems
	}
	if u, err := url.Parse(c.endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("endpoint %q is not an absolute URL", c.endpoint))
	}

	return problems
}

func (c *Client) validateRetryConfig() []string {
	var problems []string

	if c.retry.Total < 1 {
		problems = append(problems, "maxRetries must be at least 1")
	}
	if c.retry.InitialBackoff <= 0 {
		problems = append(problems, "initialBackoff must be positive")
	}
	if c.retry.MaxBackoff < c.retry.InitialBackoff {
		problems = append(problems, "maxBackoff must be greater than or equal to initialBackoff")
	}
	if c.rateLimitRetries < 0 {
		problems = append(problems, "rateLimitRetries must be non-negative")
	}
	if c.timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}

	return problems
}
