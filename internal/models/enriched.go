package models

import "time"

// DateKeyLayout is the UTC calendar-day key used by the daily index.
const DateKeyLayout = "2006-01-02"

// EnrichedTweet is a tweet plus its sentiment verdict. Created exactly once
// per id by the processing pipeline, keyed by id, immutable thereafter.
type EnrichedTweet struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	CreatedAt  time.Time        `json:"created_at"`
	Sentiment  SentimentVerdict `json:"sentiment"`
	EnrichedAt time.Time        `json:"enriched_at"`
}

// NewEnrichedTweet builds the enriched form of a pending tweet.
func NewEnrichedTweet(pending PendingTweet, verdict SentimentVerdict, enrichedAt time.Time) EnrichedTweet {
	return EnrichedTweet{
		ID:         pending.ID,
		Text:       pending.Text,
		CreatedAt:  pending.CreatedAt,
		Sentiment:  verdict,
		EnrichedAt: enrichedAt,
	}
}

// DateKey returns the UTC calendar day the tweet was created on.
func (t EnrichedTweet) DateKey() string {
	return t.CreatedAt.UTC().Format(DateKeyLayout)
}
