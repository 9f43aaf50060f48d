package metrics

// MetricsWrapper adapts Metrics to the narrow interfaces the model and web
// packages depend on, so neither imports Prometheus directly.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) PredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *MetricsWrapper) PredictionFailuresInc() {
	w.m.PredictionFailures.Inc()
}

func (w *MetricsWrapper) PredictionTimeoutsInc() {
	w.m.PredictionTimeouts.Inc()
}

func (w *MetricsWrapper) PredictionLatencyObserve(seconds float64) {
	w.m.PredictionLatency.Observe(seconds)
}

func (w *MetricsWrapper) ModelLoadedSet(loaded bool) {
	if loaded {
		w.m.ModelLoaded.Set(1)
		return
	}
	w.m.ModelLoaded.Set(0)
}

func (w *MetricsWrapper) ModelAgeSet(seconds float64) {
	w.m.ModelAge.Set(seconds)
}

func (w *MetricsWrapper) ModelLoadDurationObserve(seconds float64) {
	w.m.ModelLoadDuration.Observe(seconds)
}

func (w *MetricsWrapper) PredictedPriceObserve(price float64) {
	w.m.PredictedPrices.Observe(price)
}

func (w *MetricsWrapper) ValidationErrorsInc() {
	w.m.ValidationErrors.Inc()
}

func (w *MetricsWrapper) HTTPRequestObserve(route string, code int) {
	w.m.ObserveRequest(route, code)
}
