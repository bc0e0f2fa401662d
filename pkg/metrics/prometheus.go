package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchCycles   *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	marketRate    *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	notifications *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchCycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratewatch_fetch_cycles_total",
				Help: "Total number of scheduled fetch cycles by result",
			},
			[]string{"result"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratewatch_fetch_errors_total",
				Help: "Total number of rate source errors by kind",
			},
			[]string{"kind"},
		),
		marketRate: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratewatch_market_rate_percent",
				Help: "Last observed market rate for a loan term",
			},
			[]string{"term_years"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		notifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratewatch_notifications_total",
				Help: "Total number of notifications emitted by type",
			},
			[]string{"type"},
		),
	}
}

// RecordFetchCycle records a completed fetch cycle outcome.
func (r *Recorder) RecordFetchCycle(result string) {
	r.fetchCycles.WithLabelValues(result).Inc()
}

// RecordFetchError records a rate source error occurrence.
func (r *Recorder) RecordFetchError(kind string) {
	r.fetchErrors.WithLabelValues(kind).Inc()
}

// RecordMarketRate records the last observed rate for a term.
func (r *Recorder) RecordMarketRate(termYears string, rate float64) {
	r.marketRate.WithLabelValues(termYears).Set(rate)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordNotification records an emitted notification.
func (r *Recorder) RecordNotification(ntype string) {
	r.notifications.WithLabelValues(ntype).Inc()
}
