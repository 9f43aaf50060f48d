// Package metrics provides Prometheus metrics collection for the house price estimator.
// It defines the prediction, model lifecycle and HTTP metrics exposed on the
// /metrics endpoint for monitoring and alerting.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the estimator.
type Metrics struct {
	// Prediction metrics
	Predictions        prometheus.Counter   // Total number of successful predictions
	PredictionFailures prometheus.Counter   // Total number of failed predictions
	PredictionTimeouts prometheus.Counter   // Predictions abandoned because the model did not answer in time
	PredictionLatency  prometheus.Histogram // End-to-end prediction latency in seconds
	PredictedPrices    prometheus.Histogram // Distribution of predicted prices

	// Model lifecycle metrics
	ModelLoaded       prometheus.Gauge     // 1 when the model artifacts loaded, 0 otherwise
	ModelAge          prometheus.Gauge     // Age of the model artifact in seconds at load time
	ModelLoadDuration prometheus.Histogram // Time spent loading artifacts and starting the worker

	// Web metrics
	ValidationErrors prometheus.Counter     // Form submissions rejected by validation
	HTTPRequests     *prometheus.CounterVec // Requests by route and status code
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of successful predictions",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed predictions",
		}),
		PredictionTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_timeouts_total",
			Help: "Total number of predictions that exceeded the timeout",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		PredictedPrices: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predicted_price_dollars",
			Help:    "Distribution of predicted house prices",
			Buckets: prometheus.ExponentialBuckets(25000, 2, 8),
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "Whether the model artifacts are loaded (1) or failed to load (0)",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the model artifact in seconds when it was loaded",
		}),
		ModelLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "model_load_duration_seconds",
			Help:    "Duration of model loading in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ValidationErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "validation_errors_total",
			Help: "Total number of form submissions rejected by validation",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// ObserveRequest counts one finished HTTP request.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
