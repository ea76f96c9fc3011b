package backoff

import "time"

// Strategy defines the interface for backoff calculation algorithms.
type Strategy interface {
	// Calculate returns the wait before retry number `retry` (1-based),
	// bounded by max.
	Calculate(retry int, initial, max time.Duration) time.Duration
}

// ExponentialStrategy implements the classic doubling schedule:
// wait = initial × 2^(retry−1).
type ExponentialStrategy struct{}

// Calculate implements the Strategy interface.
func (s ExponentialStrategy) Calculate(retry int, initial, max time.Duration) time.Duration {
	if retry < 1 {
		retry = 1
	}

	// Prevent overflow by limiting the exponent
	if retry > 31 {
		retry = 31
	}

	backoff := time.Duration(float64(initial) * pow(2.0, retry-1))
	if backoff < 0 || backoff > max {
		backoff = max
	}
	return backoff
}

// pow calculates base^exponent using integer exponentiation.
func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
