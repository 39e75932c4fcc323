package api

import (
	"net/http"

	"github.com/sentipulse/sentipulse/internal/auth"
	"github.com/sentipulse/sentipulse/internal/collection"
	"log/slog"
)

// SetupRoutes configures all API routes. Mutating endpoints require a valid
// admin token; read endpoints and health/metrics are public.
func SetupRoutes(mux *http.ServeMux, collector CollectionRunner, processor ProcessRunner, registry *collection.Registry, stats StatsProvider, metricsHandler http.Handler, authConfig auth.Config, logger *slog.Logger) {
	handler := NewHandler(collector, processor, registry, stats, logger)
	authHandler := NewAuthHandler(authConfig, logger)

	authMiddleware := auth.Middleware(authConfig)

	// Authentication routes
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.Handle("/api/auth/validate", authMiddleware(http.HandlerFunc(authHandler.ValidateToken)))

	// Pipeline triggers (require auth)
	mux.Handle("/api/collect", authMiddleware(http.HandlerFunc(handler.CollectHandler)))
	mux.Handle("/api/collect/cancel", authMiddleware(http.HandlerFunc(handler.CancelCollectHandler)))
	mux.Handle("/api/process", authMiddleware(http.HandlerFunc(handler.ProcessHandler)))

	// Read side (public)
	mux.HandleFunc("/api/collect/status", handler.CollectStatusHandler)
	mux.HandleFunc("/api/sentiment", handler.SentimentHandler)
	mux.HandleFunc("/api/tweets", handler.TweetsHandler)

	// Operational endpoints
	mux.HandleFunc("/healthz", handler.HealthHandler)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
}
