package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sentipulse/sentipulse/internal/aggregation"
	"github.com/sentipulse/sentipulse/internal/api"
	"github.com/sentipulse/sentipulse/internal/auth"
	"github.com/sentipulse/sentipulse/internal/collection"
	"github.com/sentipulse/sentipulse/internal/config"
	"github.com/sentipulse/sentipulse/internal/enrichment"
	"github.com/sentipulse/sentipulse/internal/logging"
	"github.com/sentipulse/sentipulse/internal/metrics"
	"github.com/sentipulse/sentipulse/internal/models"
	"github.com/sentipulse/sentipulse/internal/processing"
	"github.com/sentipulse/sentipulse/internal/ratelimit"
	"github.com/sentipulse/sentipulse/internal/search"
	"github.com/sentipulse/sentipulse/internal/server"
	"github.com/sentipulse/sentipulse/internal/store"
	"log/slog"
)

func loadConfig() (config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// app holds the shared wiring every subcommand needs: config, logger, the
// key-value backend and the repository on top of it.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	kv       store.KV
	repo     *store.TweetRepository
	registry *collection.Registry
	metrics  *metrics.Collector
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	kv, err := openKV(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		kv:       kv,
		repo:     store.NewTweetRepository(kv),
		registry: collection.NewRegistry(),
		metrics:  collector,
	}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

func openKV(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.KV, error) {
	switch cfg.Backend {
	case "memory":
		logger.Info("using in-memory store")
		return store.NewMemoryKV(), nil
	case "sqlite":
		logger.Info("using sqlite store", "path", cfg.SQLitePath)
		return store.NewSQLiteKV(cfg.SQLitePath)
	case "postgres":
		logger.Info("using postgres store")
		pgCfg := store.DefaultPostgresConfig()
		pgCfg.URL = cfg.PostgresURL
		return store.NewPostgresKV(ctx, pgCfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func (a *app) buildCollector() (*collection.Collector, error) {
	client, err := search.NewTwitterClient(a.cfg.Twitter.BearerToken, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init search client: %w", err)
	}

	start, end, err := a.cfg.Twitter.CollectionRange()
	if err != nil {
		return nil, fmt.Errorf("collection range: %w", err)
	}

	collectCfg := collection.DefaultConfig()
	collectCfg.Query = a.cfg.Twitter.Query
	collectCfg.RangeStart = start
	collectCfg.RangeEnd = end

	return collection.NewCollector(client, a.repo, a.registry, a.metrics.Pipeline(), collectCfg, a.logger), nil
}

func (a *app) buildProcessor() (*processing.Processor, error) {
	openaiCfg := enrichment.DefaultOpenAIConfig()
	openaiCfg.APIKey = a.cfg.OpenAI.APIKey
	if a.cfg.OpenAI.Model != "" {
		openaiCfg.Model = a.cfg.OpenAI.Model
	}

	classifier, err := enrichment.NewOpenAIClassifier(openaiCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	bucket, err := ratelimit.NewTokenBucket(a.cfg.RateLimit.Capacity, a.cfg.RateLimit.Window())
	if err != nil {
		return nil, fmt.Errorf("init rate limiter: %w", err)
	}

	retrier := enrichment.NewRetrier(classifier, bucket, enrichment.DefaultRetryPolicy(), a.logger)
	return processing.NewProcessor(a.repo, retrier, a.metrics.Pipeline(), processing.DefaultConfig(), a.logger), nil
}

func (a *app) buildAggregator() *aggregation.Aggregator {
	return aggregation.NewAggregator(a.repo, a.logger)
}

func runServe() error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	collector, err := app.buildCollector()
	if err != nil {
		return err
	}
	processor, err := app.buildProcessor()
	if err != nil {
		return err
	}

	authConfig := auth.LoadConfigFromEnv()
	app.logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	mux := http.NewServeMux()
	api.SetupRoutes(mux, collector, processor, app.registry, app.buildAggregator(), app.metrics.Handler(), authConfig, app.logger)

	srv := server.New(app.cfg.Server, app.logger, app.metrics.InstrumentHandler(mux))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		app.logger.Info("received signal, shutting down", "signal", sig.String())
	}

	return srv.Shutdown(ctx)
}

func runCollect() error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	collector, err := app.buildCollector()
	if err != nil {
		return err
	}

	result := collector.Run(ctx)
	app.logger.Info("collection finished",
		"processed", result.ProcessedCount,
		"new_tweets", result.NewTweets,
		"errors", len(result.Errors))

	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	fmt.Printf("processed %d items, %d new\n", result.ProcessedCount, result.NewTweets)
	return nil
}

func runProcess() error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	processor, err := app.buildProcessor()
	if err != nil {
		return err
	}

	result := processor.Run(ctx)
	app.logger.Info("processing finished",
		"processed", result.ProcessedCount,
		"errors", len(result.Errors))

	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	fmt.Printf("enriched %d tweets\n", result.ProcessedCount)
	return nil
}

func runStats(startDate, endDate string, jsonOutput bool) error {
	ctx := context.Background()
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if startDate == "" {
		startDate = time.Now().UTC().Format(models.DateKeyLayout)
	}
	if endDate == "" {
		endDate = startDate
	}

	days, err := app.buildAggregator().DailyStats(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(days)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTOTAL\tV.POS\tPOS\tNEU\tNEG\tV.NEG\tAVG CONF")
	for _, day := range days {
		dist := day.SentimentDistribution
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\n",
			day.Date,
			day.Total,
			dist[models.SentimentVeryPositive],
			dist[models.SentimentPositive],
			dist[models.SentimentNeutral],
			dist[models.SentimentNegative],
			dist[models.SentimentVeryNegative],
			day.AverageConfidence)
	}
	return w.Flush()
}
