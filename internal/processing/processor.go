package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentipulse/sentipulse/internal/enrichment"
	"github.com/sentipulse/sentipulse/internal/metrics"
	"github.com/sentipulse/sentipulse/internal/models"
	"github.com/sentipulse/sentipulse/internal/store"
)

// Config holds the processing pacing parameters.
type Config struct {
	ChunkSize       int
	InterChunkDelay time.Duration
	InterItemDelay  time.Duration

	// After BudgetFailureLimit consecutive platform-budget failures the
	// pass pauses for BudgetPause before continuing.
	BudgetFailureLimit int
	BudgetPause        time.Duration
}

// DefaultConfig returns the production pacing: chunks of 3, 45 seconds
// between chunks, 8 seconds between items.
func DefaultConfig() Config {
	return Config{
		ChunkSize:          3,
		InterChunkDelay:    45 * time.Second,
		InterItemDelay:     8 * time.Second,
		BudgetFailureLimit: 3,
		BudgetPause:        60 * time.Second,
	}
}

// Enricher produces a verdict for one text. Satisfied by enrichment.Retrier.
type Enricher interface {
	Classify(ctx context.Context, text string) (*models.SentimentVerdict, error)
}

// Processor drains the pending backlog in small chunks, enriching each tweet
// and maintaining the daily index. A single item's failure never aborts the
// chunk or the pass; the item stays pending for a future run.
type Processor struct {
	repo     *store.TweetRepository
	enricher Enricher
	pipeline *metrics.Pipeline
	cfg      Config
	logger   *slog.Logger
}

// NewProcessor wires a processor.
func NewProcessor(repo *store.TweetRepository, enricher Enricher, pipeline *metrics.Pipeline, cfg Config, logger *slog.Logger) *Processor {
	return &Processor{
		repo:     repo,
		enricher: enricher,
		pipeline: pipeline,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes one processing pass over the current backlog. Running against
// an empty backlog is a no-op returning zero processed and no errors.
func (p *Processor) Run(ctx context.Context) models.ProcessResult {
	result := models.ProcessResult{Errors: []string{}}

	pending, err := p.repo.ListPending(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list pending: %v", err))
		return result
	}

	if len(pending) == 0 {
		p.logger.Info("no pending tweets to process")
		return result
	}

	chunks := chunkTweets(pending, p.cfg.ChunkSize)
	p.logger.Info("processing pass started",
		"pending", len(pending),
		"chunks", len(chunks))

	budgetStreak := 0

	for i, chunk := range chunks {
		if i > 0 {
			if err := sleepContext(ctx, p.cfg.InterChunkDelay); err != nil {
				return result
			}
		}

		for _, tweet := range chunk {
			if ctx.Err() != nil {
				return result
			}

			verdict, err := p.enricher.Classify(ctx, tweet.Text)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("tweet %s: %v", tweet.ID, err))
				p.pipeline.EnrichmentFailed()

				var budgetErr *enrichment.BudgetExhaustedError
				if errors.As(err, &budgetErr) {
					budgetStreak++
					if budgetStreak >= p.cfg.BudgetFailureLimit {
						p.logger.Warn("platform budget failures, pausing",
							"streak", budgetStreak,
							"pause", p.cfg.BudgetPause)
						if err := sleepContext(ctx, p.cfg.BudgetPause); err != nil {
							return result
						}
						budgetStreak = 0
					}
				} else {
					budgetStreak = 0
				}
				continue
			}
			budgetStreak = 0

			if err := p.finishTweet(ctx, tweet, *verdict); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("tweet %s: %v", tweet.ID, err))
				continue
			}

			result.ProcessedCount++
			p.pipeline.TweetEnriched()

			if err := sleepContext(ctx, p.cfg.InterItemDelay); err != nil {
				return result
			}
		}
	}

	p.logger.Info("processing pass finished",
		"processed", result.ProcessedCount,
		"errors", len(result.Errors))

	return result
}

// finishTweet persists the enriched form, removes the pending marker and
// updates the daily index, in that order. A failure partway leaves the item
// in a state the next pass handles: the enriched write is idempotent and the
// index append is membership-checked.
func (p *Processor) finishTweet(ctx context.Context, tweet models.PendingTweet, verdict models.SentimentVerdict) error {
	enriched := models.NewEnrichedTweet(tweet, verdict, time.Now().UTC())

	if err := p.repo.SaveEnriched(ctx, enriched); err != nil {
		return fmt.Errorf("save enriched: %w", err)
	}

	if err := p.repo.DeletePending(ctx, tweet.ID); err != nil {
		return fmt.Errorf("delete pending: %w", err)
	}

	if err := p.repo.AppendDailyIndex(ctx, enriched.DateKey(), enriched.ID); err != nil {
		return fmt.Errorf("update daily index: %w", err)
	}

	return nil
}

// chunkTweets partitions the backlog into fixed-size chunks.
func chunkTweets(tweets []models.PendingTweet, size int) [][]models.PendingTweet {
	if size <= 0 {
		size = 1
	}

	chunks := make([][]models.PendingTweet, 0, (len(tweets)+size-1)/size)
	for start := 0; start < len(tweets); start += size {
		end := start + size
		if end > len(tweets) {
			end = len(tweets)
		}
		chunks = append(chunks, tweets[start:end])
	}
	return chunks
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
