package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"house-price/internal/features"
	"house-price/internal/form"
	"house-price/internal/ml"

	"github.com/rs/zerolog"
)

const (
	pageTitle     = "House Price Estimator"
	maxBodyBytes  = 1 << 20
	invalidBanner = "Some values need attention"
)

// pageData is everything the page template renders.
type pageData struct {
	Title        string
	Fields       []fieldView
	Result       string
	ModelNote    string
	Error        string
	Details      []string
	LoadError    string
	ModelPath    string
	FeaturesPath string
	RequestID    string
}

type fieldView struct {
	form.Field
	Value   string
	Error   string
	Options []option
}

type option struct {
	Value    string
	Selected bool
}

// PredictionRequest is the JSON body of /api/predict.
type PredictionRequest struct {
	Inputs map[string]float64 `json:"inputs"`
}

// PredictionResponse is the JSON result of /api/predict.
type PredictionResponse struct {
	Price     float64   `json:"price"`
	Formatted string    `json:"formatted"`
	Features  []string  `json:"features"`
	Values    []float64 `json:"values"`
	Defaulted []string  `json:"defaulted,omitempty"`
	RequestID string    `json:"request_id"`
	Latency   float64   `json:"latency_ms"`
}

type errorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	model, err := s.loader.Load(r.Context())
	if err != nil {
		s.renderLoadError(w, r, err)
		return
	}

	data := s.newPage(r)
	data.Fields = s.fieldViews(model, nil, nil)
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	model, err := s.loader.Load(r.Context())
	if err != nil {
		s.renderLoadError(w, r, err)
		return
	}

	data := s.newPage(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		data.Fields = s.fieldViews(model, nil, nil)
		data.Error = fmt.Sprintf("could not read the submitted form: %v", err)
		s.render(w, r, http.StatusBadRequest, data)
		return
	}

	fields := s.schema.Fields(model.ExpectedFeatures())
	inputs, verrs := form.Parse(fields, r.PostForm)
	data.Fields = s.fieldViews(model, r.PostForm, verrs)

	if len(verrs) > 0 {
		if s.metrics != nil {
			s.metrics.ValidationErrorsInc()
		}
		data.Error = invalidBanner
		for _, e := range verrs {
			data.Details = append(data.Details, e.Error())
		}
		s.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	row := features.Assemble(model.ExpectedFeatures(), inputs)
	price, err := model.Predict(r.Context(), row)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("row", row.String()).Msg("prediction failed")
		data.Error = err.Error()
		s.render(w, r, http.StatusInternalServerError, data)
		return
	}

	if s.metrics != nil {
		s.metrics.PredictedPriceObserve(price)
	}
	data.Result = FormatPrice(price)
	data.ModelNote = fmt.Sprintf("This estimate comes from the trained model using the %d features above.", row.Len())
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := RequestID(r.Context())

	model, err := s.loader.Load(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), RequestID: requestID})
		return
	}

	var req PredictionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request: %v", err), RequestID: requestID})
		return
	}

	values := make(url.Values, len(req.Inputs))
	for name, v := range req.Inputs {
		values.Set(name, strconv.FormatFloat(v, 'f', -1, 64))
	}

	expected := model.ExpectedFeatures()
	defaulted := features.Missing(expected, req.Inputs)
	if len(defaulted) > 0 {
		zerolog.Ctx(r.Context()).Debug().Strs("features", defaulted).Msg("inputs not supplied, using defaults")
	}

	inputs, verrs := form.Parse(s.schema.Fields(expected), values)
	if len(verrs) > 0 {
		if s.metrics != nil {
			s.metrics.ValidationErrorsInc()
		}
		resp := errorResponse{Error: verrs.Error(), Fields: make(map[string]string, len(verrs)), RequestID: requestID}
		for _, e := range verrs {
			resp.Fields[e.Field] = e.Message
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	row := features.Assemble(expected, inputs)
	price, err := model.Predict(r.Context(), row)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("row", row.String()).Msg("prediction failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), RequestID: requestID})
		return
	}

	if s.metrics != nil {
		s.metrics.PredictedPriceObserve(price)
	}
	writeJSON(w, http.StatusOK, PredictionResponse{
		Price:     price,
		Formatted: FormatPrice(price),
		Features:  row.Names(),
		Values:    row.Values(),
		Defaulted: defaulted,
		RequestID: requestID,
		Latency:   float64(time.Since(start).Microseconds()) / 1000,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	model, err := s.loader.Load(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	info := model.Info()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"features":  len(model.ExpectedFeatures()),
		"loaded_at": info.LoadedAt,
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	model, err := s.loader.Load(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ml.Info
		Features []string `json:"features"`
	}{model.Info(), model.ExpectedFeatures()})
}

func (s *Server) newPage(r *http.Request) *pageData {
	return &pageData{Title: pageTitle, RequestID: RequestID(r.Context())}
}

// fieldViews pairs each widget with the value to display: the submitted text
// when there is one, otherwise the field default.
func (s *Server) fieldViews(model *ml.Model, submitted url.Values, verrs form.ValidationErrors) []fieldView {
	fields := s.schema.Fields(model.ExpectedFeatures())
	views := make([]fieldView, len(fields))
	for i, f := range fields {
		value := f.Format(f.Default)
		if raw := submitted.Get(f.Name); raw != "" {
			value = raw
		}
		v := fieldView{Field: f, Value: value, Error: verrs.For(f.Name)}
		for _, c := range f.Choices {
			text := f.Format(c)
			v.Options = append(v.Options, option{Value: text, Selected: text == value})
		}
		views[i] = v
	}
	return views
}

func (s *Server) renderLoadError(w http.ResponseWriter, r *http.Request, err error) {
	data := s.newPage(r)
	data.LoadError = err.Error()
	data.ModelPath = s.config.ModelPath
	data.FeaturesPath = s.config.FeaturesPath

	var loadErr *ml.LoadError
	if errors.As(err, &loadErr) && loadErr.Path != "" {
		if loadErr.Artifact == ml.ArtifactModel && data.ModelPath == "" {
			data.ModelPath = loadErr.Path
		}
		if loadErr.Artifact == ml.ArtifactFeatures && data.FeaturesPath == "" {
			data.FeaturesPath = loadErr.Path
		}
	}
	s.render(w, r, http.StatusServiceUnavailable, data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	if data.Title == "" {
		data.Title = pageTitle
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render page")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
