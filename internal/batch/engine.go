package batch

import (
	"context"
	"errors"
	"sort"
	"time"

	"house-price/internal/features"
	"house-price/internal/form"

	"github.com/rs/zerolog/log"
)

// Scorer is the slice of *ml.Model the engine needs.
type Scorer interface {
	ExpectedFeatures() []string
	Predict(ctx context.Context, row features.Row) (float64, error)
}

// Prediction is the outcome for one record.
type Prediction struct {
	Line      int       `json:"line"`
	ID        string    `json:"id,omitempty"`
	Price     float64   `json:"price"`
	Formatted string    `json:"formatted,omitempty"`
	Values    []float64 `json:"values,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Results holds a batch run.
type Results struct {
	Features    []string     `json:"features"`
	Predictions []Prediction `json:"predictions"`
	Total       int          `json:"total"`
	Succeeded   int          `json:"succeeded"`
	Invalid     int          `json:"invalid"`
	Failed      int          `json:"failed"`
	MinPrice    float64      `json:"min_price"`
	MaxPrice    float64      `json:"max_price"`
	MeanPrice   float64      `json:"mean_price"`
	MedianPrice float64      `json:"median_price"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
}

// Engine scores records one at a time.
type Engine struct {
	model  Scorer
	schema *form.Schema
	format func(float64) string
}

// NewEngine creates an engine. format renders prices for reports.
func NewEngine(model Scorer, schema *form.Schema, format func(float64) string) *Engine {
	return &Engine{model: model, schema: schema, format: format}
}

// Run scores every record. A record that fails validation or prediction is
// reported and the run continues. Run stops early only when ctx is done.
func (e *Engine) Run(ctx context.Context, records []Record) (*Results, error) {
	expected := e.model.ExpectedFeatures()
	fields := e.schema.Fields(expected)

	results := &Results{
		Features:    expected,
		Predictions: make([]Prediction, 0, len(records)),
		StartTime:   time.Now(),
	}

	log.Info().Int("records", len(records)).Int("features", len(expected)).Msg("Starting batch run")

	var (
		prices []float64
		runErr error
	)
	for _, rec := range records {
		if runErr = ctx.Err(); runErr != nil {
			break
		}

		p := Prediction{Line: rec.Line, ID: rec.ID}
		inputs, verrs := form.Parse(fields, rec.Values)
		if len(verrs) > 0 {
			p.Error = verrs.Error()
			results.Invalid++
			results.Predictions = append(results.Predictions, p)
			continue
		}

		row := features.Assemble(expected, inputs)
		p.Values = row.Values()
		price, err := e.model.Predict(ctx, row)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				runErr = err
				break
			}
			log.Warn().Err(err).Int("line", rec.Line).Msg("prediction failed")
			p.Error = err.Error()
			results.Failed++
			results.Predictions = append(results.Predictions, p)
			continue
		}

		p.Price = price
		if e.format != nil {
			p.Formatted = e.format(price)
		}
		prices = append(prices, price)
		results.Predictions = append(results.Predictions, p)
	}

	results.Total = len(results.Predictions)
	results.Succeeded = len(prices)
	results.summarize(prices)
	results.EndTime = time.Now()

	log.Info().
		Int("succeeded", results.Succeeded).
		Int("invalid", results.Invalid).
		Int("failed", results.Failed).
		Dur("duration", results.EndTime.Sub(results.StartTime)).
		Msg("Batch run completed")

	return results, runErr
}

func (r *Results) summarize(prices []float64) {
	if len(prices) == 0 {
		return
	}

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, p := range sorted {
		sum += p
	}

	r.MinPrice = sorted[0]
	r.MaxPrice = sorted[len(sorted)-1]
	r.MeanPrice = sum / float64(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		r.MedianPrice = sorted[mid]
	} else {
		r.MedianPrice = (sorted[mid-1] + sorted[mid]) / 2
	}
}
