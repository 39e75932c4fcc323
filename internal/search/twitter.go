package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sentipulse/sentipulse/internal/models"
)

const defaultBaseURL = "https://api.twitter.com/2/tweets/search/recent"

// TwitterClient queries the Twitter API v2 recent search endpoint.
type TwitterClient struct {
	bearerToken string
	baseURL     string
	client      *http.Client
	logger      *slog.Logger
}

// NewTwitterClient creates a search client. A missing bearer token is a
// configuration error and is rejected before any work happens.
func NewTwitterClient(bearerToken string, logger *slog.Logger) (*TwitterClient, error) {
	if bearerToken == "" {
		return nil, fmt.Errorf("twitter bearer token is required")
	}

	return &TwitterClient{
		bearerToken: bearerToken,
		baseURL:     defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}, nil
}

// twitterTweet is a tweet as returned by the API.
type twitterTweet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// twitterResponse is the recent search API response envelope.
type twitterResponse struct {
	Data []twitterTweet `json:"data"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

// Search fetches one page of results for the request's window.
func (tc *TwitterClient) Search(ctx context.Context, req Request) (*Page, error) {
	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > MaxPageSize {
		maxResults = MaxPageSize
	}

	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("start_time", req.StartTime.UTC().Format(time.RFC3339))
	params.Set("end_time", req.EndTime.UTC().Format(time.RFC3339))
	params.Set("tweet.fields", "created_at,author_id")
	if req.NextToken != "" {
		params.Set("next_token", req.NextToken)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, tc.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+tc.bearerToken)

	resp, err := tc.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ThrottledError{Status: resp.StatusCode}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &RequestError{Status: resp.StatusCode, Body: string(body)}
	}

	var result twitterResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	tweets := make([]models.RawTweet, 0, len(result.Data))
	for _, tweet := range result.Data {
		tweets = append(tweets, models.RawTweet{
			ID:        tweet.ID,
			Text:      tweet.Text,
			AuthorID:  tweet.AuthorID,
			CreatedAt: tweet.CreatedAt,
		})
	}

	tc.logger.Debug("search page fetched",
		"query", req.Query,
		"count", result.Meta.ResultCount,
		"has_next", result.Meta.NextToken != "")

	return &Page{
		Tweets:      tweets,
		ResultCount: result.Meta.ResultCount,
		NextToken:   result.Meta.NextToken,
	}, nil
}
