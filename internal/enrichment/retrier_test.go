package enrichment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/sentipulse/sentipulse/internal/models"
)

type countingTokenSource struct {
	acquired int
	err      error
}

func (c *countingTokenSource) Acquire(ctx context.Context) error {
	c.acquired++
	return c.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  time.Millisecond,
		MaxDelay:   16 * time.Millisecond,
	}
}

func TestClassifySucceedsFirstAttempt(t *testing.T) {
	classifier := NewMockClassifier()
	tokens := &countingTokenSource{}
	retrier := NewRetrier(classifier, tokens, fastPolicy(), testLogger())

	verdict, err := retrier.Classify(context.Background(), "hello")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if verdict.PrimarySentiment.Label != models.SentimentNeutral {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if classifier.Calls() != 1 {
		t.Fatalf("expected 1 call, got %d", classifier.Calls())
	}
	if tokens.acquired != 1 {
		t.Fatalf("expected 1 token, got %d", tokens.acquired)
	}
}

func TestClassifyRetriesThrottling(t *testing.T) {
	classifier := NewMockClassifier()
	classifier.QueueErrors(
		&APIError{Status: http.StatusTooManyRequests},
		&APIError{Status: http.StatusConflict},
		&APIError{Status: http.StatusTooManyRequests},
	)
	tokens := &countingTokenSource{}
	retrier := NewRetrier(classifier, tokens, fastPolicy(), testLogger())

	verdict, err := retrier.Classify(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected success on fourth attempt, got %v", err)
	}
	if verdict == nil {
		t.Fatal("expected verdict")
	}
	if classifier.Calls() != 4 {
		t.Fatalf("expected 4 attempts, got %d", classifier.Calls())
	}

	// A token is spent on every attempt, retries included.
	if tokens.acquired != 4 {
		t.Fatalf("expected 4 tokens, got %d", tokens.acquired)
	}
}

func TestClassifyFailsImmediatelyOnOtherErrors(t *testing.T) {
	classifier := NewMockClassifier()
	classifier.QueueErrors(&APIError{Status: http.StatusInternalServerError})
	retrier := NewRetrier(classifier, &countingTokenSource{}, fastPolicy(), testLogger())

	_, err := retrier.Classify(context.Background(), "hello")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
	if classifier.Calls() != 1 {
		t.Fatalf("500 must not be retried, got %d calls", classifier.Calls())
	}
}

func TestClassifyBudgetErrorNotRetried(t *testing.T) {
	classifier := NewMockClassifier()
	classifier.QueueErrors(&BudgetExhaustedError{Cause: errors.New("insufficient_quota")})
	retrier := NewRetrier(classifier, &countingTokenSource{}, fastPolicy(), testLogger())

	_, err := retrier.Classify(context.Background(), "hello")
	var budgetErr *BudgetExhaustedError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("expected BudgetExhaustedError, got %v", err)
	}
	if classifier.Calls() != 1 {
		t.Fatalf("budget exhaustion must not be retried, got %d calls", classifier.Calls())
	}
}

func TestClassifyExhaustsRetries(t *testing.T) {
	classifier := NewMockClassifier()
	for i := 0; i < 5; i++ {
		classifier.QueueErrors(&APIError{Status: http.StatusTooManyRequests})
	}
	retrier := NewRetrier(classifier, &countingTokenSource{}, fastPolicy(), testLogger())

	_, err := retrier.Classify(context.Background(), "hello")
	var exhausted *RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetriesExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 5 {
		t.Fatalf("unexpected attempt count %d", exhausted.Attempts)
	}

	var apiErr *APIError
	if !errors.As(exhausted, &apiErr) || apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("exhaustion must wrap the last throttle error, got %v", exhausted.Err)
	}
	if classifier.Calls() != 5 {
		t.Fatalf("expected 5 attempts, got %d", classifier.Calls())
	}
}

func TestClassifyStopsWhenTokenSourceFails(t *testing.T) {
	classifier := NewMockClassifier()
	tokens := &countingTokenSource{err: context.Canceled}
	retrier := NewRetrier(classifier, tokens, fastPolicy(), testLogger())

	if _, err := retrier.Classify(context.Background(), "hello"); err == nil {
		t.Fatal("expected token source failure to surface")
	}
	if classifier.Calls() != 0 {
		t.Fatal("classifier must not be called without a token")
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 8 * time.Second, MaxDelay: 120 * time.Second}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 16 * time.Second},
		{2, 32 * time.Second},
		{3, 64 * time.Second},
		{4, 120 * time.Second},
		{10, 120 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(policy, tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}
