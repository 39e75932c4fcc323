package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and the
// ingestion/enrichment pipeline, on a private registry.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	pipeline        *Pipeline
}

// Pipeline holds the counters the collector and processor increment. A nil
// Pipeline is a valid no-op so tests can skip metrics wiring.
type Pipeline struct {
	tweetsCollected    prometheus.Counter
	tweetsEnriched     prometheus.Counter
	enrichmentFailures prometheus.Counter
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sentipulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sentipulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	pipeline := &Pipeline{
		tweetsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentipulse",
			Subsystem: "pipeline",
			Name:      "tweets_collected_total",
			Help:      "Total number of new tweets persisted as pending.",
		}),
		tweetsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentipulse",
			Subsystem: "pipeline",
			Name:      "tweets_enriched_total",
			Help:      "Total number of tweets successfully enriched.",
		}),
		enrichmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentipulse",
			Subsystem: "pipeline",
			Name:      "enrichment_failures_total",
			Help:      "Total number of failed enrichment attempts.",
		}),
	}

	for _, c := range []prometheus.Collector{
		requestDuration,
		requestTotal,
		pipeline.tweetsCollected,
		pipeline.tweetsEnriched,
		pipeline.enrichmentFailures,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		pipeline:        pipeline,
	}, nil
}

// Pipeline returns the pipeline counters.
func (c *Collector) Pipeline() *Pipeline {
	return c.pipeline
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// TweetCollected increments the collected counter.
func (p *Pipeline) TweetCollected() {
	if p == nil {
		return
	}
	p.tweetsCollected.Inc()
}

// TweetEnriched increments the enriched counter.
func (p *Pipeline) TweetEnriched() {
	if p == nil {
		return
	}
	p.tweetsEnriched.Inc()
}

// EnrichmentFailed increments the failure counter.
func (p *Pipeline) EnrichmentFailed() {
	if p == nil {
		return
	}
	p.enrichmentFailures.Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
