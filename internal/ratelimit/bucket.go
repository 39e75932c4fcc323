package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"context"
)

// TokenBucket accumulates permits over time and spends one per guarded
// operation. Tokens never exceed capacity; they strictly increase with time,
// so a waiting caller may be overtaken but never starves indefinitely.
type TokenBucket struct {
	mu          sync.Mutex
	capacity    float64
	refillPerMs float64
	tokens      float64
	lastRefill  time.Time

	now func() time.Time
}

// NewTokenBucket creates a bucket that holds capacity tokens and refills the
// full capacity once per window (e.g. 10 tokens per minute).
func NewTokenBucket(capacity int, window time.Duration) (*TokenBucket, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if window <= 0 {
		return nil, fmt.Errorf("refill window must be positive, got %v", window)
	}

	b := &TokenBucket{
		capacity:    float64(capacity),
		refillPerMs: float64(capacity) / float64(window.Milliseconds()),
		now:         time.Now,
	}
	b.tokens = b.capacity
	b.lastRefill = b.now()
	return b, nil
}

// Acquire blocks until a token is available, then consumes it. Waiting is
// interrupted by context cancellation.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refillLocked()

		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}

		deficit := 1 - b.tokens
		waitMs := math.Ceil(deficit / b.refillPerMs)
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
		case <-time.After(time.Duration(waitMs) * time.Millisecond):
		}
	}
}

// Tokens returns the current token count after refill, for observability.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}

func (b *TokenBucket) refillLocked() {
	now := b.now()
	elapsedMs := float64(now.Sub(b.lastRefill).Milliseconds())
	if elapsedMs <= 0 {
		return
	}

	b.tokens = math.Min(b.capacity, b.tokens+elapsedMs*b.refillPerMs)
	b.lastRefill = now
}
