// Package ml binds the trained house price model to the application.
//
// The model and its ordered feature-name list are produced elsewhere and stored as
// opaque artifacts. A Store loads them once per process and hands out a read-only
// Model; predictions are delegated to a long-lived Python worker that owns the
// deserialized estimator. Nothing in this package inspects the estimator itself.
package ml

import "context"

// Predictor is the opaque inference capability behind a Model.
type Predictor interface {
	// Predict scores a single row. columns and values are parallel and already
	// in the model's expected order.
	Predict(ctx context.Context, columns []string, values []float64) (float64, error)
}

// MetricsInterface defines metrics methods needed by the model store
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc()
	PredictionTimeoutsInc()
	PredictionLatencyObserve(float64)
	ModelLoadedSet(bool)
	ModelAgeSet(float64)
	ModelLoadDurationObserve(float64)
}
