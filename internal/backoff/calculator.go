package backoff

import "time"

// Calculator provides backoff calculation using a configurable strategy.
// It centralizes the schedule so the transport layer does not reimplement it.
type Calculator struct {
	strategy Strategy
}

// NewCalculator creates a calculator with the specified strategy.
func NewCalculator(strategy Strategy) *Calculator {
	return &Calculator{strategy: strategy}
}

// Calculate computes the wait before retry number `retry` (1-based).
func (c *Calculator) Calculate(retry int, initial, max time.Duration) time.Duration {
	return c.strategy.Calculate(retry, initial, max)
}

// Exponential returns a calculator configured with the doubling schedule.
// This is the only strategy the client uses today.
func Exponential() *Calculator {
	return NewCalculator(ExponentialStrategy{})
}
