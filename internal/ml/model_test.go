package ml

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"house-price/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioFeatures = []string{"OverallQual", "GrLivArea", "GarageCars", "TotalBsmtSF", "FullBath", "YearBuilt"}

func TestNewModel_Validation(t *testing.T) {
	testCases := []struct {
		name      string
		predictor Predictor
		features  []string
		wantErr   string
	}{
		{"valid", &fakePredictor{}, []string{"A", "B"}, ""},
		{"nil predictor", nil, []string{"A"}, "predictor is nil"},
		{"empty features", &fakePredictor{}, nil, "feature list is empty"},
		{"blank name", &fakePredictor{}, []string{"A", " "}, "feature 1 has an empty name"},
		{"duplicate name", &fakePredictor{}, []string{"A", "B", "A"}, `feature "A" listed twice (positions 0 and 2)`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewModel(tc.predictor, tc.features, 0, nil)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.features, m.ExpectedFeatures())
				return
			}
			assert.EqualError(t, err, tc.wantErr)
			assert.Nil(t, m)
		})
	}
}

func TestModel_PredictScenario(t *testing.T) {
	predictor := &fakePredictor{value: 181234.5}
	metrics := &MockMetrics{}
	m, err := NewModel(predictor, scenarioFeatures, time.Second, metrics)
	require.NoError(t, err)

	row := features.Assemble(m.ExpectedFeatures(), map[string]float64{
		"OverallQual": 8, "GrLivArea": 2200, "GarageCars": 2,
		"TotalBsmtSF": 800, "FullBath": 2, "YearBuilt": 2015,
	})

	value, err := m.Predict(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, 181234.5, value)
	assert.False(t, math.IsNaN(value) || math.IsInf(value, 0))

	assert.Equal(t, scenarioFeatures, predictor.columns)
	assert.Equal(t, []float64{8, 2200, 2, 800, 2, 2015}, predictor.values)
	assert.Equal(t, 1, metrics.predictions)
	assert.Equal(t, 0, metrics.failures)
	assert.Equal(t, 1, metrics.latencyCount)
}

func TestModel_PredictRejectsWrongLayout(t *testing.T) {
	predictor := &fakePredictor{value: 1}
	metrics := &MockMetrics{}
	m, err := NewModel(predictor, scenarioFeatures, 0, metrics)
	require.NoError(t, err)

	reordered := []string{"GrLivArea", "OverallQual", "GarageCars", "TotalBsmtSF", "FullBath", "YearBuilt"}
	rows := map[string]features.Row{
		"reordered": features.Assemble(reordered, nil),
		"short":     features.Assemble(scenarioFeatures[:3], nil),
		"long":      features.Assemble(append(append([]string{}, scenarioFeatures...), "LotArea"), nil),
	}

	for name, row := range rows {
		t.Run(name, func(t *testing.T) {
			_, err := m.Predict(context.Background(), row)
			var predErr *PredictionError
			require.ErrorAs(t, err, &predErr)
			assert.Contains(t, err.Error(), "row does not match model layout")
		})
	}

	assert.Equal(t, 0, predictor.calls, "predictor must not be called with a bad layout")
	assert.Equal(t, 3, metrics.failures)
}

func TestModel_PredictSurfacesPredictorError(t *testing.T) {
	predictor := &fakePredictor{err: errors.New("ValueError: could not convert string to float")}
	metrics := &MockMetrics{}
	m, err := NewModel(predictor, []string{"A"}, 0, metrics)
	require.NoError(t, err)

	_, err = m.Predict(context.Background(), features.Assemble([]string{"A"}, nil))

	var predErr *PredictionError
	require.ErrorAs(t, err, &predErr)
	assert.EqualError(t, err, "prediction failed: ValueError: could not convert string to float")
	assert.Equal(t, 1, metrics.failures)
	assert.Equal(t, 0, metrics.predictions)
}

func TestModel_PredictRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		m, err := NewModel(&fakePredictor{value: v}, []string{"A"}, 0, nil)
		require.NoError(t, err)

		_, err = m.Predict(context.Background(), features.Assemble([]string{"A"}, nil))
		var predErr *PredictionError
		require.ErrorAs(t, err, &predErr)
		assert.Contains(t, err.Error(), "non-finite")
	}
}

func TestModel_PredictTimeout(t *testing.T) {
	metrics := &MockMetrics{}
	m, err := NewModel(&fakePredictor{block: true}, []string{"A"}, 20*time.Millisecond, metrics)
	require.NoError(t, err)

	_, err = m.Predict(context.Background(), features.Assemble([]string{"A"}, nil))

	var predErr *PredictionError
	require.ErrorAs(t, err, &predErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "did not answer within 20ms")
	assert.Equal(t, 1, metrics.timeouts)
	assert.Equal(t, 1, metrics.failures)
}

func TestModel_PredictCallerDeadline(t *testing.T) {
	metrics := &MockMetrics{}
	m, err := NewModel(&fakePredictor{block: true}, []string{"A"}, 0, metrics)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Predict(ctx, features.Assemble([]string{"A"}, nil))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualError(t, err, "prediction failed: model did not answer: context deadline exceeded")
	assert.NotContains(t, err.Error(), "within")
	assert.Equal(t, 1, metrics.timeouts)
}

func TestModel_NilSafety(t *testing.T) {
	var m *Model

	_, err := m.Predict(context.Background(), features.Assemble([]string{"A"}, nil))
	var predErr *PredictionError
	require.ErrorAs(t, err, &predErr)
	assert.Contains(t, err.Error(), "model is not loaded")
}

func TestModel_ExpectedFeaturesIsACopy(t *testing.T) {
	names := []string{"A", "B"}
	m, err := NewModel(&fakePredictor{}, names, 0, nil)
	require.NoError(t, err)

	names[0] = "Z"
	got := m.ExpectedFeatures()
	got[1] = "Y"

	assert.Equal(t, []string{"A", "B"}, m.ExpectedFeatures())
}

func TestModel_Concurrency(t *testing.T) {
	metrics := &MockMetrics{}
	m, err := NewModel(&fakePredictor{value: 100}, scenarioFeatures, time.Second, metrics)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				row := features.Assemble(m.ExpectedFeatures(), map[string]float64{"OverallQual": float64(i%10 + 1)})
				if _, err := m.Predict(context.Background(), row); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 200, metrics.predictions)
}
