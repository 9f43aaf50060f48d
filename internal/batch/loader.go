// Package batch scores many houses from a file through the same validation,
// assembly and model path the web page uses, and reports the results.
package batch

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// idColumn is copied to Record.ID instead of being treated as a feature.
const idColumn = "Id"

// Record is one house read from an input file.
type Record struct {
	Line   int // 1-based line or array position in the source
	ID     string
	Values url.Values
}

// Load reads records from a .csv or .json file.
func Load(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadFromCSV(path)
	case ".json":
		return LoadFromJSON(path)
	default:
		return nil, fmt.Errorf("cannot determine file format for: %s", path)
	}
}

// LoadFromCSV reads a CSV file whose header row names the features.
func LoadFromCSV(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV file is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		rec := Record{Line: line, Values: make(url.Values, len(header))}
		for i, col := range header {
			if col == idColumn {
				rec.ID = row[i]
				continue
			}
			rec.Values.Set(col, row[i])
		}
		records = append(records, rec)
	}

	log.Debug().Int("records", len(records)).Strs("columns", header).Msg("CSV loaded")
	return records, nil
}

// LoadFromJSON reads a JSON array of objects mapping feature names to numbers.
func LoadFromJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec := Record{Line: i + 1, Values: make(url.Values, len(row))}
		for name, raw := range row {
			text, err := rawScalar(raw)
			if err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", i+1, name, err)
			}
			if name == idColumn {
				rec.ID = text
				continue
			}
			rec.Values.Set(name, text)
		}
		records = append(records, rec)
	}

	log.Debug().Int("records", len(records)).Msg("JSON loaded")
	return records, nil
}

// rawScalar turns a JSON number, string or null into form text.
func rawScalar(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case string:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(raw))
	}
}
