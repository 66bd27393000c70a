package api

import (
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matchday/internal/telemetry"
)

// Metrics with bounded cardinality: no per-match or per-player labels.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matchday_tick_duration_seconds",
		Help:    "Time spent advancing one decision tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	matchesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matchday_matches_active",
		Help: "Simulations currently running",
	})

	matchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchday_matches_total",
		Help: "Simulations completed",
	})

	eventsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchday_events_emitted_total",
		Help: "Match events appended across all simulations",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchday_connection_rejected_total",
		Help: "Connections rejected by rate limiter or session caps",
	}, []string{"reason"}) // bounded: "rate_limit", "live_limit", "match_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matchday_websocket_connections_active",
		Help: "Currently active live-stream connections",
	})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matchday_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern
)

// observeTick records the time elapsed since start in the tick histogram.
func observeTick(start time.Time) {
	tickDuration.Observe(time.Since(start).Seconds())
}

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // MUST stay on localhost in production
}

// StartDebugServer serves /metrics and pprof on the loopback interface.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)

	go func() {
		telemetry.Infof("debug server listening on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			telemetry.Errorf("debug server: %v", err)
		}
	}()
	return nil
}

// withRequestMetrics instruments a route pattern.
func withRequestMetrics(pattern string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		requestLatency.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	}
}
