package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	predictionsFile = "predictions.csv"
	reportFile      = "batch_report.json"
)

// Reporter writes batch results to an output directory.
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport writes the per-record CSV and the JSON report.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generatePredictionLog(); err != nil {
		return err
	}
	return r.generateJSONReport()
}

// generatePredictionLog writes one CSV row per record: line, id, price and the
// assembled feature values in model order.
func (r *Reporter) generatePredictionLog() error {
	path := filepath.Join(r.outputPath, predictionsFile)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create predictions file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := append([]string{"line", "id", "price", "error"}, r.results.Features...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range r.results.Predictions {
		row := make([]string, 0, len(header))
		price := ""
		if p.Error == "" {
			price = strconv.FormatFloat(p.Price, 'f', 2, 64)
		}
		row = append(row, strconv.Itoa(p.Line), p.ID, price, p.Error)
		for i := range r.results.Features {
			if i < len(p.Values) {
				row = append(row, strconv.FormatFloat(p.Values[i], 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write predictions file: %w", err)
	}

	log.Info().Str("file", path).Msg("Prediction log generated")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	path := filepath.Join(r.outputPath, reportFile)
	data, err := json.MarshalIndent(r.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().Str("file", path).Msg("JSON report generated")
	return nil
}

// PrintSummary writes a short summary to w. format renders prices.
func (r *Reporter) PrintSummary(w io.Writer, format func(float64) string) {
	res := r.results
	fmt.Fprintln(w, "\n=== BATCH RESULTS ===")
	fmt.Fprintf(w, "Records: %d\n", res.Total)
	fmt.Fprintf(w, "Predicted: %d\n", res.Succeeded)
	fmt.Fprintf(w, "Invalid: %d\n", res.Invalid)
	fmt.Fprintf(w, "Failed: %d\n", res.Failed)
	if res.Succeeded > 0 {
		fmt.Fprintf(w, "Min Price: %s\n", format(res.MinPrice))
		fmt.Fprintf(w, "Median Price: %s\n", format(res.MedianPrice))
		fmt.Fprintf(w, "Mean Price: %s\n", format(res.MeanPrice))
		fmt.Fprintf(w, "Max Price: %s\n", format(res.MaxPrice))
	}
	fmt.Fprintf(w, "Duration: %s\n", res.EndTime.Sub(res.StartTime))
	fmt.Fprintln(w, "=====================")
}
