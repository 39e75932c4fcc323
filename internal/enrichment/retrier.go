package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentipulse/sentipulse/internal/models"
)

// TokenSource is the rate-limiting primitive the retrier acquires a token
// from before every attempt, including retries.
type TokenSource interface {
	Acquire(ctx context.Context) error
}

// RetryPolicy bounds one item's enrichment attempts.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns the production pacing against the provider.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  8 * time.Second,
		MaxDelay:   120 * time.Second,
	}
}

// Retrier wraps a single enrichment call with rate limiting, bounded retries
// and exponential delay on throttling.
type Retrier struct {
	classifier SentimentClassifier
	limiter    TokenSource
	policy     RetryPolicy
	logger     *slog.Logger
}

// NewRetrier wires a classifier behind a token source.
func NewRetrier(classifier SentimentClassifier, limiter TokenSource, policy RetryPolicy, logger *slog.Logger) *Retrier {
	return &Retrier{
		classifier: classifier,
		limiter:    limiter,
		policy:     policy,
		logger:     logger,
	}
}

// Classify attempts to enrich one text. Throttling responses (429/409) are
// retried with escalating delay; every other failure surfaces immediately.
// Exhausting the retry budget yields a RetriesExhaustedError.
func (r *Retrier) Classify(ctx context.Context, text string) (*models.SentimentVerdict, error) {
	var lastErr error
	var throttleExtra time.Duration

	for attempt := 0; attempt < r.policy.MaxRetries; attempt++ {
		if err := r.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		// Flat pacing before the first attempt, exponential backoff after,
		// plus the extra penalty carried over from a throttled attempt.
		delay := r.policy.BaseDelay
		if attempt > 0 {
			delay = backoffDelay(r.policy, attempt)
		}
		if err := sleepContext(ctx, delay+throttleExtra); err != nil {
			return nil, err
		}
		throttleExtra = 0

		verdict, err := r.classifier.Classify(ctx, text)
		if err == nil {
			return verdict, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Throttled() {
			throttleExtra = r.policy.BaseDelay * (1 << (attempt + 2))
			r.logger.Warn("enrichment throttled, will retry",
				"attempt", attempt+1,
				"status", apiErr.Status,
				"extra_delay", throttleExtra)
			continue
		}

		// Non-throttling failures are not retried at this layer; the caller
		// decides whether to count them and pause.
		return nil, err
	}

	return nil, &RetriesExhaustedError{Attempts: r.policy.MaxRetries, Err: lastErr}
}

// backoffDelay computes min(base * 2^attempt, max).
func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := policy.BaseDelay * (1 << attempt)
	if delay > policy.MaxDelay || delay <= 0 {
		delay = policy.MaxDelay
	}
	return delay
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enrichment wait cancelled: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}
