// Package metrics exposes relay counters in Prometheus text format.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

const (
	publishTotal  = `disco_relay_publish_total{outcome=%q}`
	lookupTotal   = `disco_relay_lookup_total{outcome=%q}`
	storeDuration = `disco_relay_store_duration_seconds{op=%q}`
	buildInfo     = `disco_relay_build_info{service=%q,version=%q}`
)

// Outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// IncPublish counts a publish attempt by outcome.
func IncPublish(outcome string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(publishTotal, outcome)).Inc()
}

// IncLookup counts a lookup by outcome.
func IncLookup(outcome string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(lookupTotal, outcome)).Inc()
}

// ObserveStore records the duration of a store call started at start.
func ObserveStore(op string, start time.Time) {
	metrics.GetOrCreateHistogram(fmt.Sprintf(storeDuration, op)).UpdateDuration(start)
}

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service name and version.
func New(service, version, listenAddr string) (*MetricsServer, error) {
	metrics.GetOrCreateGauge(fmt.Sprintf(buildInfo, service, version), func() float64 { return 1 })

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (s *MetricsServer) Handler() http.Handler {
	return s.srv.Handler
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
