package models

import (
	"fmt"
	"time"
)

// RawTweet is a tweet exactly as returned by the search provider.
// Immutable once received.
type RawTweet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that the provider returned the fields we rely on.
func (t RawTweet) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tweet id is required")
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("tweet %s: created_at is required", t.ID)
	}
	return nil
}

// PendingTweet is a raw tweet awaiting sentiment enrichment. It exists from
// the moment collection discovers a previously-unseen id until processing
// successfully enriches it; exhausted retries leave it pending for a future
// run rather than dropping it.
type PendingTweet struct {
	RawTweet
	Processed bool `json:"processed"`
}

// NewPendingTweet wraps a raw tweet with the unprocessed marker.
func NewPendingTweet(raw RawTweet) PendingTweet {
	return PendingTweet{RawTweet: raw, Processed: false}
}
