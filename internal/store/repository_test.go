package store

import (
	"context"
	"testing"
	"time"

	"github.com/sentipulse/sentipulse/internal/models"
)

func testVerdict(label models.SentimentLabel) models.SentimentVerdict {
	verdict := models.SentimentVerdict{
		PrimarySentiment:  models.PrimarySentiment{Label: label, Score: 0.9},
		OverallConfidence: 0.8,
	}
	verdict.Normalize()
	return verdict
}

func testPending(id string, createdAt time.Time) models.PendingTweet {
	return models.NewPendingTweet(models.RawTweet{
		ID:        id,
		Text:      "tweet " + id,
		AuthorID:  "author",
		CreatedAt: createdAt,
	})
}

func TestPendingLifecycle(t *testing.T) {
	repo := NewTweetRepository(NewMemoryKV())
	ctx := context.Background()

	ok, err := repo.PendingExists(ctx, "1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("empty repo must report no pending tweet")
	}

	created := time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC)
	if err := repo.SavePending(ctx, testPending("1", created)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SavePending(ctx, testPending("2", created)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if ok, _ := repo.PendingExists(ctx, "1"); !ok {
		t.Fatal("saved tweet must exist")
	}

	count, err := repo.CountPending(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 pending, got %d", count)
	}

	pending, err := repo.ListPending(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "1" || pending[1].ID != "2" {
		t.Fatalf("unexpected backlog: %+v", pending)
	}
	if !pending[0].CreatedAt.Equal(created) {
		t.Fatalf("createdAt not round-tripped: %v", pending[0].CreatedAt)
	}

	if err := repo.DeletePending(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := repo.PendingExists(ctx, "1"); ok {
		t.Fatal("deleted tweet must not exist")
	}
}

func TestEnrichedRoundTrip(t *testing.T) {
	repo := NewTweetRepository(NewMemoryKV())
	ctx := context.Background()

	got, err := repo.GetEnriched(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatal("missing enriched tweet must be nil")
	}

	created := time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC)
	enriched := models.NewEnrichedTweet(testPending("1", created), testVerdict(models.SentimentPositive), created.Add(time.Hour))
	if err := repo.SaveEnriched(ctx, enriched); err != nil {
		t.Fatalf("save: %v", err)
	}

	if ok, _ := repo.EnrichedExists(ctx, "1"); !ok {
		t.Fatal("saved enriched tweet must exist")
	}

	got, err = repo.GetEnriched(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != "1" {
		t.Fatalf("unexpected enriched tweet: %+v", got)
	}
	if got.Sentiment.PrimarySentiment.Label != models.SentimentPositive {
		t.Fatalf("sentiment not round-tripped: %+v", got.Sentiment)
	}
	if got.DateKey() != "2025-05-15" {
		t.Fatalf("unexpected date key %q", got.DateKey())
	}
}

func TestDailyIndexAppendIsIdempotent(t *testing.T) {
	repo := NewTweetRepository(NewMemoryKV())
	ctx := context.Background()

	ids, err := repo.DailyIndex(ctx, "2025-05-15")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("missing index must be empty, got %v", ids)
	}

	for _, id := range []string{"1", "2", "1", "2", "1"} {
		if err := repo.AppendDailyIndex(ctx, "2025-05-15", id); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	ids, err = repo.DailyIndex(ctx, "2025-05-15")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("expected deduplicated index [1 2], got %v", ids)
	}

	// A different day keeps its own index.
	other, err := repo.DailyIndex(ctx, "2025-05-16")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("unrelated day must be empty, got %v", other)
	}
}

func TestKeyHelpers(t *testing.T) {
	if got := PendingKey("42"); got != "pending:42" {
		t.Fatalf("unexpected pending key %q", got)
	}
	if got := EnrichedKey("42"); got != "enriched:42" {
		t.Fatalf("unexpected enriched key %q", got)
	}
	if got := DailyIndexKey("2025-05-15"); got != "index:day:2025-05-15" {
		t.Fatalf("unexpected index key %q", got)
	}
	if got := PendingID("pending:42"); got != "42" {
		t.Fatalf("unexpected pending id %q", got)
	}
}
