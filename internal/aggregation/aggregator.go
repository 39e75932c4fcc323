package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sentipulse/sentipulse/internal/models"
	"github.com/sentipulse/sentipulse/internal/store"
)

// AspectBreakdown counts the tri-state sentiment of one aspect over a day.
type AspectBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// DailyStats is the aggregate for one calendar day.
type DailyStats struct {
	Date                  string                        `json:"date"`
	Total                 int                           `json:"total"`
	SentimentDistribution map[models.SentimentLabel]int `json:"sentiment_distribution"`
	Aspects               map[string]AspectBreakdown    `json:"aspects"`
	AverageConfidence     float64                       `json:"average_confidence"`
}

// Aggregator reconstructs enriched tweets for a date range from the daily
// index and computes distribution statistics. The index is a hint, not a
// foreign-key constraint: referenced ids with no stored tweet are skipped.
type Aggregator struct {
	repo   *store.TweetRepository
	logger *slog.Logger
}

// NewAggregator wires an aggregator.
func NewAggregator(repo *store.TweetRepository, logger *slog.Logger) *Aggregator {
	return &Aggregator{repo: repo, logger: logger}
}

// DailyStats computes per-day aggregates over the inclusive date range.
func (a *Aggregator) DailyStats(ctx context.Context, startDate, endDate string) ([]DailyStats, error) {
	start, err := time.Parse(models.DateKeyLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse(models.DateKeyLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s precedes start date %s", endDate, startDate)
	}

	stats := make([]DailyStats, 0)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dayStats, err := a.statsForDay(ctx, day.Format(models.DateKeyLayout))
		if err != nil {
			return nil, err
		}
		stats = append(stats, dayStats)
	}

	return stats, nil
}

func (a *Aggregator) statsForDay(ctx context.Context, date string) (DailyStats, error) {
	stats := DailyStats{
		Date:                  date,
		SentimentDistribution: make(map[models.SentimentLabel]int, 5),
		Aspects:               make(map[string]AspectBreakdown, 3),
	}
	for _, label := range models.SentimentLabels() {
		stats.SentimentDistribution[label] = 0
	}
	for _, aspect := range models.CanonicalAspects() {
		stats.Aspects[aspect] = AspectBreakdown{}
	}

	tweets, err := a.tweetsForDay(ctx, date)
	if err != nil {
		return DailyStats{}, err
	}

	confidenceSum := 0.0
	for _, tweet := range tweets {
		stats.Total++
		stats.SentimentDistribution[tweet.Sentiment.PrimarySentiment.Label]++
		confidenceSum += tweet.Sentiment.OverallConfidence

		for name, score := range tweet.Sentiment.Aspects {
			breakdown := stats.Aspects[name]
			switch score.Sentiment {
			case models.AspectPositive:
				breakdown.Positive++
			case models.AspectNegative:
				breakdown.Negative++
			default:
				breakdown.Neutral++
			}
			stats.Aspects[name] = breakdown
		}
	}

	if stats.Total > 0 {
		stats.AverageConfidence = confidenceSum / float64(stats.Total)
	}

	return stats, nil
}

// tweetsForDay resolves the day's index entries, skipping dangling ids.
func (a *Aggregator) tweetsForDay(ctx context.Context, date string) ([]models.EnrichedTweet, error) {
	ids, err := a.repo.DailyIndex(ctx, date)
	if err != nil {
		return nil, err
	}

	tweets := make([]models.EnrichedTweet, 0, len(ids))
	for _, id := range ids {
		tweet, err := a.repo.GetEnriched(ctx, id)
		if err != nil {
			return nil, err
		}
		if tweet == nil {
			a.logger.Debug("daily index references missing tweet", "date", date, "tweet_id", id)
			continue
		}
		tweets = append(tweets, *tweet)
	}

	return tweets, nil
}

// TweetsBySentiment returns one day's enriched tweets filtered by sentiment.
// A canonical primary label filters on the primary sentiment; a tri-state
// value (positive/neutral/negative) filters on the named aspect's sentiment.
func (a *Aggregator) TweetsBySentiment(ctx context.Context, date, sentiment, aspect string) ([]models.EnrichedTweet, error) {
	if _, err := time.Parse(models.DateKeyLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	tweets, err := a.tweetsForDay(ctx, date)
	if err != nil {
		return nil, err
	}

	// The two filter paths are distinguished by case: the lowercase tri-state
	// values select the aspect path, the uppercase canonical labels select the
	// primary path.
	if models.IsAspectSentiment(sentiment) {
		target := sentiment
		aspect = strings.ToLower(aspect)

		valid := false
		for _, name := range models.CanonicalAspects() {
			if aspect == name {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("unknown aspect %q", aspect)
		}

		filtered := make([]models.EnrichedTweet, 0)
		for _, tweet := range tweets {
			if tweet.Sentiment.Aspects[aspect].Sentiment == target {
				filtered = append(filtered, tweet)
			}
		}
		return filtered, nil
	}

	label := models.SentimentLabel(strings.ToUpper(sentiment))
	if !label.IsValid() {
		return nil, fmt.Errorf("unknown sentiment %q", sentiment)
	}

	filtered := make([]models.EnrichedTweet, 0)
	for _, tweet := range tweets {
		if tweet.Sentiment.PrimarySentiment.Label == label {
			filtered = append(filtered, tweet)
		}
	}
	return filtered, nil
}
