package enrichment

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the enrichment provider.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("enrichment API error: status %d", e.Status)
}

// Throttled reports whether the status indicates rate limiting or a
// concurrency conflict, both of which are retryable.
func (e *APIError) Throttled() bool {
	return e.Status == http.StatusTooManyRequests || e.Status == http.StatusConflict
}

// FormatError indicates model output that could not be parsed into a verdict
// even after the cleanup pass. The item stays pending for a future run.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unparseable enrichment response: %s", e.Reason)
}

// RetriesExhaustedError is returned when every attempt for one item failed.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("enrichment failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// BudgetExhaustedError signals that the hosting platform's own outbound
// request budget is exhausted, as opposed to the provider throttling us.
// The processing pipeline pauses after a streak of these.
type BudgetExhaustedError struct {
	Cause error
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("platform request budget exhausted: %v", e.Cause)
}

func (e *BudgetExhaustedError) Unwrap() error {
	return e.Cause
}
