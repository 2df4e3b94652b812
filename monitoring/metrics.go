package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var (
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_api_requests_total",
			Help: "Backend requests by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)

	apiDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campus_api_request_duration_seconds",
			Help:    "Duration of backend requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"endpoint"},
	)

	feedLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_loads_total",
			Help: "Feed loads by source (nearby, custom, fallback) and outcome",
		},
		[]string{"source", "status"},
	)

	feedSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_events",
			Help: "Events currently held per feed section",
		},
		[]string{"section"},
	)

	workflowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_operations_total",
			Help: "Reservation, upload and profile operations",
		},
		[]string{"operation", "status"},
	)

	autocompleteLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autocomplete_lookups_total",
			Help: "University lookups by cache result",
		},
		[]string{"result"},
	)

	cachedQueries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autocomplete_cached_queries",
			Help: "Autocomplete queries currently cached in Redis",
		},
	)
)

// Monitor records client-side metrics. The zero value and a nil *Monitor
// are both usable and only skip the Redis collection loop.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient}
}

// Run samples Redis-derived gauges until ctx is done.
func (m *Monitor) Run(ctx context.Context, every time.Duration) {
	if m == nil || m.redis == nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		m.collectCacheMetrics(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) collectCacheMetrics(ctx context.Context) {
	var count int
	iter := m.redis.Scan(ctx, 0, "autocomplete:universities:*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		slog.Debug("Failed to scan autocomplete cache", "error", err)
		return
	}
	cachedQueries.Set(float64(count))
}

func (m *Monitor) TrackRequest(endpoint, status string, duration time.Duration) {
	apiRequests.WithLabelValues(endpoint, status).Inc()
	apiDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Monitor) TrackFeedLoad(source, status string) {
	feedLoads.WithLabelValues(source, status).Inc()
}

func (m *Monitor) TrackFeedSize(section string, n int) {
	feedSize.WithLabelValues(section).Set(float64(n))
}

func (m *Monitor) TrackOperation(operation, status string) {
	workflowOperations.WithLabelValues(operation, status).Inc()
}

func (m *Monitor) TrackAutocomplete(result string) {
	autocompleteLookups.WithLabelValues(result).Inc()
}

// Endpoint reduces a request path to a low-cardinality label by replacing
// id segments.
func Endpoint(method, path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if i >= 2 && parts[i-1] == "events" && p != "create" && p != "" {
			parts[i] = ":id"
		}
		if i >= 2 && parts[i-1] == "optins" && p != "" {
			parts[i] = ":id"
		}
	}
	return method + " " + strings.Join(parts, "/")
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
