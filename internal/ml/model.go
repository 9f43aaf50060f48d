package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"house-price/internal/features"

	"github.com/rs/zerolog/log"
)

// Info describes where a model came from. It is fixed at load time.
type Info struct {
	ModelPath    string        `json:"model_path"`
	FeaturesPath string        `json:"features_path"`
	Interpreter  string        `json:"interpreter,omitempty"`
	ModelModTime time.Time     `json:"model_modified_at"`
	LoadedAt     time.Time     `json:"loaded_at"`
	LoadDuration time.Duration `json:"load_duration_ns"`
}

// Model is a loaded predictor plus the ordered feature names it expects. It is
// immutable after construction and safe for concurrent use.
type Model struct {
	predictor Predictor
	features  []string
	timeout   time.Duration
	metrics   MetricsInterface
	info      Info
}

// NewModel wraps predictor. features must be non-empty and unique. A zero timeout
// leaves deadlines to the caller's context.
func NewModel(predictor Predictor, features []string, timeout time.Duration, metrics MetricsInterface) (*Model, error) {
	if predictor == nil {
		return nil, errors.New("predictor is nil")
	}
	if err := validateFeatureNames(features); err != nil {
		return nil, err
	}

	names := make([]string, len(features))
	copy(names, features)

	return &Model{
		predictor: predictor,
		features:  names,
		timeout:   timeout,
		metrics:   metrics,
	}, nil
}

// ExpectedFeatures returns the model's column names in order.
func (m *Model) ExpectedFeatures() []string {
	out := make([]string, len(m.features))
	copy(out, m.features)
	return out
}

func (m *Model) Info() Info {
	return m.info
}

// Predict scores row. The row must be laid out exactly as ExpectedFeatures.
// Every failure is returned as a *PredictionError.
func (m *Model) Predict(ctx context.Context, row features.Row) (float64, error) {
	if m == nil {
		return 0, &PredictionError{Msg: "model is not loaded"}
	}

	start := time.Now()
	defer func() {
		if m.metrics != nil {
			m.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		}
	}()

	if err := row.MatchesLayout(m.features); err != nil {
		m.failed()
		return 0, &PredictionError{Msg: "row does not match model layout", Err: err}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	value, err := m.predictor.Predict(ctx, row.Names(), row.Values())
	if err != nil {
		m.failed()
		if errors.Is(err, context.DeadlineExceeded) {
			if m.metrics != nil {
				m.metrics.PredictionTimeoutsInc()
			}
			if m.timeout > 0 {
				return 0, &PredictionError{Msg: fmt.Sprintf("model did not answer within %v", m.timeout), Err: err}
			}
			return 0, &PredictionError{Msg: "model did not answer", Err: err}
		}
		log.Error().Err(err).Str("row", row.String()).Msg("prediction failed")
		return 0, &PredictionError{Err: err}
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		m.failed()
		return 0, &PredictionError{Msg: fmt.Sprintf("model returned non-finite value %v", value)}
	}

	if m.metrics != nil {
		m.metrics.PredictionsInc()
	}

	log.Debug().
		Str("row", row.String()).
		Float64("prediction", value).
		Dur("latency", time.Since(start)).
		Msg("prediction successful")

	return value, nil
}

func (m *Model) failed() {
	if m.metrics != nil {
		m.metrics.PredictionFailuresInc()
	}
}
