package search

import (
	"context"
	"fmt"
	"time"

	"github.com/sentipulse/sentipulse/internal/models"
)

// MaxPageSize is the provider's maximum page size. A page smaller than this
// signals the end of a window even when a continuation token is present.
const MaxPageSize = 100

// Request describes one search page request within a time window.
type Request struct {
	Query      string
	StartTime  time.Time
	EndTime    time.Time
	MaxResults int
	NextToken  string
}

// Page is one page of search results.
type Page struct {
	Tweets      []models.RawTweet
	ResultCount int
	NextToken   string
}

// Client pages through a tweet search provider.
type Client interface {
	Search(ctx context.Context, req Request) (*Page, error)
}

// ThrottledError indicates the provider rejected the request for rate
// limiting. The caller should pause for the provider's rolling window and
// retry the same page.
type ThrottledError struct {
	Status int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("search provider throttled (status %d)", e.Status)
}

// RequestError is a non-throttling request failure. The caller abandons the
// current window but keeps already-collected items.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("search request failed: %d - %s", e.Status, e.Body)
}
