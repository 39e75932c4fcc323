package models

import "time"

// RunStatus is the lifecycle state of a collection run.
type RunStatus string

const (
	RunActive    RunStatus = "active"
	RunCancelled RunStatus = "cancelled"
)

// RunInfo is the externally visible snapshot of a collection run.
type RunInfo struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Status    RunStatus `json:"status"`
}

// CollectionResult reports the outcome of one collection run. Errors holds
// per-window failures that did not abort the run; Status is set only when a
// cancellation was observed.
type CollectionResult struct {
	ProcessedCount int      `json:"processed_count"`
	NewTweets      int      `json:"new_tweets"`
	Errors         []string `json:"errors"`
	Status         string   `json:"status,omitempty"`
}

// ProcessResult reports the outcome of one processing pass.
type ProcessResult struct {
	ProcessedCount int      `json:"processed_count"`
	Errors         []string `json:"errors"`
}
