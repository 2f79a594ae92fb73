package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the gateway, scanner and sink metrics using Prometheus.
type Recorder struct {
	upstreamFetches *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	scans           *prometheus.CounterVec
	signalsEmitted  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		upstreamFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradergenie_upstream_fetches_total",
				Help: "Upstream gateway lookups by endpoint and outcome (hit, live, stale, error)",
			},
			[]string{"endpoint", "outcome"},
		),
		upstreamLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradergenie_upstream_fetch_duration_seconds",
				Help:    "Duration of live upstream fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		scans: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradergenie_scans_total",
				Help: "Scanner runs by result (ok, degraded, stale)",
			},
			[]string{"result"},
		),
		signalsEmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradergenie_signals_emitted_total",
				Help: "Signals emitted by strategy",
			},
			[]string{"strategy"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradergenie_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradergenie_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one gateway lookup. Live fetch latency is observed
// only for outcomes that reached the upstream.
func (r *Recorder) RecordFetch(endpoint, outcome string, d time.Duration) {
	r.upstreamFetches.WithLabelValues(endpoint, outcome).Inc()
	if outcome != "hit" {
		r.upstreamLatency.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// RecordScan records a scanner run and the signals it produced.
func (r *Recorder) RecordScan(result string, signalsByStrategy map[string]int) {
	r.scans.WithLabelValues(result).Inc()
	for id, n := range signalsByStrategy {
		r.signalsEmitted.WithLabelValues(id).Add(float64(n))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordFetch(string, string, time.Duration) {}
func (Noop) RecordScan(string, map[string]int)         {}
func (Noop) RecordError(string)                        {}
func (Noop) RecordLatency(string, float64)             {}
