package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentipulse/sentipulse/internal/metrics"
	"github.com/sentipulse/sentipulse/internal/models"
	"github.com/sentipulse/sentipulse/internal/search"
	"github.com/sentipulse/sentipulse/internal/store"
)

// Config holds the fixed parameters of a collection run.
type Config struct {
	Query      string
	RangeStart time.Time
	RangeEnd   time.Time

	WindowSize time.Duration
	PageSize   int

	// Provider request budget for its rolling window. The collector pauses
	// preemptively once the counter reaches RequestBudget - BudgetHeadroom.
	RequestBudget  int
	BudgetHeadroom int
	BudgetWindow   time.Duration

	InterWindowDelay time.Duration
}

// DefaultConfig returns the production pacing: 12-hour windows, the
// provider's 180-requests-per-15-minutes budget with headroom of 5, and a
// 5-second breather between windows.
func DefaultConfig() Config {
	return Config{
		WindowSize:       12 * time.Hour,
		PageSize:         search.MaxPageSize,
		RequestBudget:    180,
		BudgetHeadroom:   5,
		BudgetWindow:     15 * time.Minute,
		InterWindowDelay: 5 * time.Second,
	}
}

// Collector walks a fixed historical range in fixed-size windows, paginates
// the search provider within each window and persists previously-unseen
// tweets as pending items.
type Collector struct {
	search   search.Client
	repo     *store.TweetRepository
	registry *Registry
	pipeline *metrics.Pipeline
	cfg      Config
	logger   *slog.Logger
}

// NewCollector wires a collector.
func NewCollector(searchClient search.Client, repo *store.TweetRepository, registry *Registry, pipeline *metrics.Pipeline, cfg Config, logger *slog.Logger) *Collector {
	return &Collector{
		search:   searchClient,
		repo:     repo,
		registry: registry,
		pipeline: pipeline,
		cfg:      cfg,
		logger:   logger,
	}
}

// window is one time slice of the collection range.
type window struct {
	start time.Time
	end   time.Time
}

// Run executes one collection pass over the configured range. Per-window
// failures are recorded in the result's error list; only cancellation stops
// the run early, with the counts gathered so far.
func (c *Collector) Run(ctx context.Context) models.CollectionResult {
	run := c.registry.Begin()
	defer c.registry.Finish(run)

	result := models.CollectionResult{Errors: []string{}}
	windows := partitionRange(c.cfg.RangeStart, c.cfg.RangeEnd, c.cfg.WindowSize)
	budget := newRequestBudget(c.cfg)

	c.logger.Info("collection run started",
		"run_id", run.ID(),
		"query", c.cfg.Query,
		"windows", len(windows),
		"range_start", c.cfg.RangeStart,
		"range_end", c.cfg.RangeEnd)

	for i, w := range windows {
		if run.Cancelled() || ctx.Err() != nil {
			result.Status = string(models.RunCancelled)
			c.logger.Info("collection run cancelled",
				"run_id", run.ID(),
				"windows_done", i,
				"processed", result.ProcessedCount)
			return result
		}

		c.collectWindow(ctx, run, w, budget, &result)

		if i < len(windows)-1 {
			if err := sleepContext(ctx, c.cfg.InterWindowDelay); err != nil {
				result.Status = string(models.RunCancelled)
				return result
			}
		}
	}

	if run.Cancelled() {
		result.Status = string(models.RunCancelled)
	}

	c.logger.Info("collection run finished",
		"run_id", run.ID(),
		"processed", result.ProcessedCount,
		"new_tweets", result.NewTweets,
		"errors", len(result.Errors))

	return result
}

// collectWindow pages through one window. A throttling response pauses for
// the provider's full rolling window and retries the same page; any other
// request failure abandons the window but keeps the items already collected.
func (c *Collector) collectWindow(ctx context.Context, run *Run, w window, budget *requestBudget, result *models.CollectionResult) {
	nextToken := ""

	for {
		if run.Cancelled() || ctx.Err() != nil {
			return
		}

		if err := budget.beforeRequest(ctx, c.logger); err != nil {
			return
		}

		page, err := c.search.Search(ctx, search.Request{
			Query:      c.cfg.Query,
			StartTime:  w.start,
			EndTime:    w.end,
			MaxResults: c.cfg.PageSize,
			NextToken:  nextToken,
		})
		if err != nil {
			var throttled *search.ThrottledError
			if errors.As(err, &throttled) {
				c.logger.Warn("search provider throttled, pausing",
					"run_id", run.ID(),
					"pause", c.cfg.BudgetWindow)
				if err := sleepContext(ctx, c.cfg.BudgetWindow); err != nil {
					return
				}
				budget.reset()
				continue // retry the same page
			}

			result.Errors = append(result.Errors,
				fmt.Sprintf("window %s: %v", w.start.UTC().Format(time.RFC3339), err))
			c.logger.Error("window abandoned",
				"run_id", run.ID(),
				"window_start", w.start,
				"error", err)
			return
		}

		for _, tweet := range page.Tweets {
			result.ProcessedCount++

			isNew, err := c.storeIfNew(ctx, tweet)
			if err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("tweet %s: %v", tweet.ID, err))
				continue
			}
			if isNew {
				result.NewTweets++
				c.pipeline.TweetCollected()
			}
		}

		// A partial page signals end-of-window even with a token present.
		if page.NextToken == "" || len(page.Tweets) < c.cfg.PageSize {
			return
		}
		nextToken = page.NextToken
	}
}

// storeIfNew persists the tweet as pending unless it already exists in
// either its pending or enriched form.
func (c *Collector) storeIfNew(ctx context.Context, tweet models.RawTweet) (bool, error) {
	if err := tweet.Validate(); err != nil {
		return false, err
	}

	enriched, err := c.repo.EnrichedExists(ctx, tweet.ID)
	if err != nil {
		return false, err
	}
	if enriched {
		return false, nil
	}

	pending, err := c.repo.PendingExists(ctx, tweet.ID)
	if err != nil {
		return false, err
	}
	if pending {
		return false, nil
	}

	if err := c.repo.SavePending(ctx, models.NewPendingTweet(tweet)); err != nil {
		return false, err
	}
	return true, nil
}

// partitionRange splits [start, end) into consecutive fixed-size windows.
func partitionRange(start, end time.Time, size time.Duration) []window {
	windows := make([]window, 0)
	for cur := start; cur.Before(end); cur = cur.Add(size) {
		windowEnd := cur.Add(size)
		if windowEnd.After(end) {
			windowEnd = end
		}
		windows = append(windows, window{start: cur, end: windowEnd})
	}
	return windows
}

// requestBudget tracks requests against the provider's rolling window and
// pauses preemptively before the budget is hit.
type requestBudget struct {
	limit       int
	headroom    int
	window      time.Duration
	count       int
	windowStart time.Time
}

func newRequestBudget(cfg Config) *requestBudget {
	return &requestBudget{
		limit:       cfg.RequestBudget,
		headroom:    cfg.BudgetHeadroom,
		window:      cfg.BudgetWindow,
		windowStart: time.Now(),
	}
}

func (b *requestBudget) beforeRequest(ctx context.Context, logger *slog.Logger) error {
	elapsed := time.Since(b.windowStart)
	if elapsed >= b.window {
		b.reset()
		elapsed = 0
	}

	if b.count >= b.limit-b.headroom {
		remaining := b.window - elapsed
		logger.Info("request budget nearly exhausted, pausing",
			"requests", b.count,
			"pause", remaining)
		if err := sleepContext(ctx, remaining); err != nil {
			return err
		}
		b.reset()
	}

	b.count++
	return nil
}

func (b *requestBudget) reset() {
	b.count = 0
	b.windowStart = time.Now()
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
