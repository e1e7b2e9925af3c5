// Package monitoring exposes Prometheus metrics for the forecasting
// pipeline. Collectors are registered on the default registry and served by
// the metrics endpoint in cmd/main.go.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Predictions served, by service type and estimation method",
		},
		[]string{"service_type", "method"},
	)

	predictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prediction_duration_seconds",
			Help:    "End-to-end prediction pipeline latency",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"service_type"},
	)

	retrievalFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieval_fallback_total",
			Help: "Retrievals degraded to the synthetic pattern generator",
		},
		[]string{"reason"},
	)

	narrativeFailureTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "narrative_failure_total",
			Help: "Narrative generations that degraded to the default reasoning",
		},
	)

	predictedCovers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "predicted_covers",
			Help: "Most recent predicted covers, by service type",
		},
		[]string{"service_type"},
	)
)

func init() {
	prometheus.MustRegister(
		predictionsTotal,
		predictionDuration,
		retrievalFallbackTotal,
		narrativeFailureTotal,
		predictedCovers,
	)
}

// ObservePrediction records one completed prediction.
func ObservePrediction(serviceType, method string, covers int, elapsed time.Duration) {
	predictionsTotal.WithLabelValues(serviceType, method).Inc()
	predictionDuration.WithLabelValues(serviceType).Observe(elapsed.Seconds())
	predictedCovers.WithLabelValues(serviceType).Set(float64(covers))
}

// RetrievalFallback records a retrieval that degraded to synthetic patterns.
func RetrievalFallback(reason string) {
	retrievalFallbackTotal.WithLabelValues(reason).Inc()
}

// NarrativeFailure records a narrative generation that fell back to the
// default reasoning.
func NarrativeFailure() {
	narrativeFailureTotal.Inc()
}
