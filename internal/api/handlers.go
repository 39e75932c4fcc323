package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sentipulse/sentipulse/internal/aggregation"
	"github.com/sentipulse/sentipulse/internal/collection"
	"github.com/sentipulse/sentipulse/internal/models"
	"log/slog"
)

// CollectionRunner runs one collection pass over the configured time range.
type CollectionRunner interface {
	Run(ctx context.Context) models.CollectionResult
}

// ProcessRunner runs one enrichment pass over the pending backlog.
type ProcessRunner interface {
	Run(ctx context.Context) models.ProcessResult
}

// StatsProvider answers the read-side queries over enriched tweets.
type StatsProvider interface {
	DailyStats(ctx context.Context, startDate, endDate string) ([]aggregation.DailyStats, error)
	TweetsBySentiment(ctx context.Context, date, sentiment, aspect string) ([]models.EnrichedTweet, error)
}

type Handler struct {
	collector CollectionRunner
	processor ProcessRunner
	registry  *collection.Registry
	stats     StatsProvider
	logger    *slog.Logger
	startTime time.Time
}

func NewHandler(collector CollectionRunner, processor ProcessRunner, registry *collection.Registry, stats StatsProvider, logger *slog.Logger) *Handler {
	return &Handler{
		collector: collector,
		processor: processor,
		registry:  registry,
		stats:     stats,
		logger:    logger,
		startTime: time.Now(),
	}
}

// CollectHandler handles POST /api/collect. The run executes synchronously;
// partial failures land in the result's errors list, not the HTTP status.
func (h *Handler) CollectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.logger.Info("collection run requested", "remote", r.RemoteAddr)
	result := h.collector.Run(r.Context())

	writeJSON(w, h.logger, http.StatusOK, result)
}

// CancelRequest names the run to cancel.
type CancelRequest struct {
	RunID string `json:"run_id"`
}

// CancelResponse reports whether the cancel took effect.
type CancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	RunID     string `json:"run_id"`
}

// CancelCollectHandler handles POST /api/collect/cancel. Cancelling an
// unknown or already-finished run is a no-op, not an error.
func (h *Handler) CancelCollectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RunID == "" {
		http.Error(w, "run_id required", http.StatusBadRequest)
		return
	}

	cancelled := h.registry.Cancel(req.RunID)
	if cancelled {
		h.logger.Info("collection run cancelled", "run_id", req.RunID)
	}

	writeJSON(w, h.logger, http.StatusOK, CancelResponse{Cancelled: cancelled, RunID: req.RunID})
}

// StatusResponse is the collection status payload. Run is nil when no
// collection is active.
type StatusResponse struct {
	Active bool            `json:"active"`
	Run    *models.RunInfo `json:"run,omitempty"`
}

// CollectStatusHandler handles GET /api/collect/status.
func (h *Handler) CollectStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info, active := h.registry.Status()
	resp := StatusResponse{Active: active}
	if active {
		resp.Run = &info
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// ProcessHandler handles POST /api/process.
func (h *Handler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.logger.Info("processing run requested", "remote", r.RemoteAddr)
	result := h.processor.Run(r.Context())

	writeJSON(w, h.logger, http.StatusOK, result)
}

// SentimentResponse wraps the per-day aggregates for a date range.
type SentimentResponse struct {
	StartDate string                   `json:"start_date"`
	EndDate   string                   `json:"end_date"`
	Days      []aggregation.DailyStats `json:"days"`
}

// SentimentHandler handles GET /api/sentiment?start_date=...&end_date=...
// A missing end_date defaults to start_date; a missing start_date defaults
// to today.
func (h *Handler) SentimentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	startDate := r.URL.Query().Get("start_date")
	if startDate == "" {
		startDate = time.Now().UTC().Format(models.DateKeyLayout)
	}
	endDate := r.URL.Query().Get("end_date")
	if endDate == "" {
		endDate = startDate
	}

	days, err := h.stats.DailyStats(r.Context(), startDate, endDate)
	if err != nil {
		h.logger.Error("failed to aggregate sentiment", "start_date", startDate, "end_date", endDate, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, SentimentResponse{
		StartDate: startDate,
		EndDate:   endDate,
		Days:      days,
	})
}

// TweetsResponse wraps one day's filtered enriched tweets.
type TweetsResponse struct {
	Date   string                 `json:"date"`
	Count  int                    `json:"count"`
	Tweets []models.EnrichedTweet `json:"tweets"`
}

// TweetsHandler handles GET /api/tweets?date=...&sentiment=...&aspect=...
func (h *Handler) TweetsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	date := query.Get("date")
	sentiment := query.Get("sentiment")
	if date == "" || sentiment == "" {
		http.Error(w, "date and sentiment are required", http.StatusBadRequest)
		return
	}

	tweets, err := h.stats.TweetsBySentiment(r.Context(), date, sentiment, query.Get("aspect"))
	if err != nil {
		h.logger.Error("failed to query tweets", "date", date, "sentiment", sentiment, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, TweetsResponse{
		Date:   date,
		Count:  len(tweets),
		Tweets: tweets,
	})
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// HealthHandler handles GET /healthz.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
