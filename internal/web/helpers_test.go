package web

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"house-price/internal/form"
	"house-price/internal/metrics"
	"house-price/internal/ml"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

var scenarioFeatures = []string{"OverallQual", "GrLivArea", "GarageCars", "TotalBsmtSF", "FullBath", "YearBuilt"}

// stubLoader hands out a fixed model or load error.
type stubLoader struct {
	model *ml.Model
	err   error
}

func (l *stubLoader) Load(ctx context.Context) (*ml.Model, error) {
	return l.model, l.err
}

// stubPredictor records calls and returns a fixed value or error.
type stubPredictor struct {
	mu      sync.Mutex
	value   float64
	err     error
	panic   string
	calls   int
	columns []string
	values  []float64
}

func (p *stubPredictor) Predict(ctx context.Context, columns []string, values []float64) (float64, error) {
	p.mu.Lock()
	p.calls++
	p.columns = columns
	p.values = values
	p.mu.Unlock()

	if p.panic != "" {
		panic(p.panic)
	}
	return p.value, p.err
}

func (p *stubPredictor) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type testEnv struct {
	predictor *stubPredictor
	metrics   *metrics.Metrics
	server    *httptest.Server
	client    *resty.Client
}

// newTestEnv serves the full handler chain with a model expecting names.
func newTestEnv(t *testing.T, names []string, predictor *stubPredictor) *testEnv {
	t.Helper()

	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry)
	wrapper := metrics.NewWrapper(m)

	model, err := ml.NewModel(predictor, names, time.Second, wrapper)
	require.NoError(t, err)

	return newTestEnvWithLoader(t, &stubLoader{model: model}, predictor, m, registry)
}

func newFailingEnv(t *testing.T, loadErr error) *testEnv {
	t.Helper()
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry)
	return newTestEnvWithLoader(t, &stubLoader{err: loadErr}, &stubPredictor{}, m, registry)
}

func newTestEnvWithLoader(t *testing.T, loader ModelLoader, predictor *stubPredictor, m *metrics.Metrics, registry *prometheus.Registry) *testEnv {
	t.Helper()

	s, err := NewServer(Config{
		ModelPath:      "/srv/models/house_price_model.pkl",
		FeaturesPath:   "/srv/models/model_features.pkl",
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, loader, form.NewSchema(2026), metrics.NewWrapper(m))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{
		predictor: predictor,
		metrics:   m,
		server:    ts,
		client:    resty.New().SetBaseURL(ts.URL),
	}
}
