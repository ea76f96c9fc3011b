package wikidata

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket used for client-side politeness: it spaces
// outgoing calls regardless of whether the server has started answering
// with 429 yet.
type RateLimiter struct {
	mu             sync.Mutex
	tokens         int
	maxTokens      int
	refillInterval time.Duration
	lastRefill     time.Time
}

// NewRateLimiter creates a bucket holding maxTokens, refilling one token
// every refillInterval.
func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
	}
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done. The client calls
// it before each outer attempt; queries stay strictly sequential per call.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.Allow() {
			return nil
		}

		rl.mu.Lock()
		next := rl.refillInterval - time.Since(rl.lastRefill)
		rl.mu.Unlock()
		if next <= 0 {
			next = time.Millisecond
		}

		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill adds tokens for the elapsed time; rl.mu must be held.
func (rl *RateLimiter) refill(now time.Time) {
	if rl.refillInterval <= 0 {
		return
	}
	elapsed := now.Sub(rl.lastRefill)
	tokensToAdd := int(elapsed / rl.refillInterval)
	if tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(tokensToAdd) * rl.refillInterval)
	}
}
