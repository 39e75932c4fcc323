package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sentipulse/sentipulse/internal/models"
)

// Key namespaces. Collection owns pending:, processing owns enriched: and
// index:day:; the prefixes are disjoint so the two may overlap in time.
const (
	pendingPrefix    = "pending:"
	enrichedPrefix   = "enriched:"
	dailyIndexPrefix = "index:day:"
)

// PendingKey returns the storage key for a pending tweet.
func PendingKey(id string) string { return pendingPrefix + id }

// EnrichedKey returns the storage key for an enriched tweet.
func EnrichedKey(id string) string { return enrichedPrefix + id }

// DailyIndexKey returns the storage key for a calendar day's index.
func DailyIndexKey(date string) string { return dailyIndexPrefix + date }

// TweetRepository is the typed layer over the KV store. It owns the key
// namespaces and the JSON encoding of the domain types.
type TweetRepository struct {
	kv KV
}

// NewTweetRepository wires a KV backend.
func NewTweetRepository(kv KV) *TweetRepository {
	return &TweetRepository{kv: kv}
}

// SavePending persists a tweet awaiting enrichment.
func (r *TweetRepository) SavePending(ctx context.Context, tweet models.PendingTweet) error {
	data, err := json.Marshal(tweet)
	if err != nil {
		return fmt.Errorf("marshal pending tweet %s: %w", tweet.ID, err)
	}
	return r.kv.Put(ctx, PendingKey(tweet.ID), data)
}

// PendingExists checks whether the id has a pending entry.
func (r *TweetRepository) PendingExists(ctx context.Context, id string) (bool, error) {
	_, ok, err := r.kv.Get(ctx, PendingKey(id))
	return ok, err
}

// ListPending loads the full pending backlog, in key order. Entries that
// vanish between List and Get are skipped.
func (r *TweetRepository) ListPending(ctx context.Context) ([]models.PendingTweet, error) {
	keys, err := r.kv.List(ctx, pendingPrefix)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	pending := make([]models.PendingTweet, 0, len(keys))
	for _, key := range keys {
		data, ok, err := r.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		if !ok {
			continue
		}

		var tweet models.PendingTweet
		if err := json.Unmarshal(data, &tweet); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		pending = append(pending, tweet)
	}

	return pending, nil
}

// DeletePending removes the pending marker for id.
func (r *TweetRepository) DeletePending(ctx context.Context, id string) error {
	return r.kv.Delete(ctx, PendingKey(id))
}

// SaveEnriched persists an enriched tweet, keyed by id so re-processing
// overwrites deterministically.
func (r *TweetRepository) SaveEnriched(ctx context.Context, tweet models.EnrichedTweet) error {
	data, err := json.Marshal(tweet)
	if err != nil {
		return fmt.Errorf("marshal enriched tweet %s: %w", tweet.ID, err)
	}
	return r.kv.Put(ctx, EnrichedKey(tweet.ID), data)
}

// EnrichedExists checks whether the id has an enriched entry.
func (r *TweetRepository) EnrichedExists(ctx context.Context, id string) (bool, error) {
	_, ok, err := r.kv.Get(ctx, EnrichedKey(id))
	return ok, err
}

// GetEnriched retrieves an enriched tweet by id, or nil when absent.
func (r *TweetRepository) GetEnriched(ctx context.Context, id string) (*models.EnrichedTweet, error) {
	data, ok, err := r.kv.Get(ctx, EnrichedKey(id))
	if err != nil {
		return nil, fmt.Errorf("get enriched %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}

	var tweet models.EnrichedTweet
	if err := json.Unmarshal(data, &tweet); err != nil {
		return nil, fmt.Errorf("unmarshal enriched %s: %w", id, err)
	}
	return &tweet, nil
}

// AppendDailyIndex adds id to the day's index if not already present. The
// read-union-write is not transactional; concurrent appenders may lose an id,
// which a later re-process restores.
func (r *TweetRepository) AppendDailyIndex(ctx context.Context, date, id string) error {
	ids, err := r.DailyIndex(ctx, date)
	if err != nil {
		return err
	}

	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}

	ids = append(ids, id)
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal index %s: %w", date, err)
	}
	return r.kv.Put(ctx, DailyIndexKey(date), data)
}

// DailyIndex returns the ordered enriched-tweet ids for one calendar day.
// A missing index is an empty day, not an error.
func (r *TweetRepository) DailyIndex(ctx context.Context, date string) ([]string, error) {
	data, ok, err := r.kv.Get(ctx, DailyIndexKey(date))
	if err != nil {
		return nil, fmt.Errorf("get index %s: %w", date, err)
	}
	if !ok {
		return []string{}, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal index %s: %w", date, err)
	}
	return ids, nil
}

// CountPending returns the size of the pending backlog.
func (r *TweetRepository) CountPending(ctx context.Context) (int, error) {
	keys, err := r.kv.List(ctx, pendingPrefix)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// PendingID extracts the tweet id from a pending storage key.
func PendingID(key string) string { return strings.TrimPrefix(key, pendingPrefix) }
