// Package web serves the estimator page and its JSON, health and metrics routes.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"house-price/internal/form"
	"house-price/internal/ml"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// ModelLoader returns the process-wide model or the error that prevented
// loading it.
type ModelLoader interface {
	Load(ctx context.Context) (*ml.Model, error)
}

// MetricsInterface is what the server records beyond the model's own metrics.
type MetricsInterface interface {
	ValidationErrorsInc()
	PredictedPriceObserve(price float64)
	HTTPRequestObserve(route string, code int)
}

// Config holds the server settings.
type Config struct {
	Addr         string
	ModelPath    string // shown in the load error banner
	FeaturesPath string
	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler
}

// Server provides the HTTP interface for house price predictions.
type Server struct {
	config  Config
	loader  ModelLoader
	schema  *form.Schema
	metrics MetricsInterface
	tmpl    *template.Template
	handler http.Handler
	server  *http.Server
}

// NewServer creates the HTTP server. metrics may be nil.
func NewServer(config Config, loader ModelLoader, schema *form.Schema, metrics MetricsInterface) (*Server, error) {
	if loader == nil {
		return nil, errors.New("model loader is nil")
	}
	if schema == nil {
		return nil, errors.New("form schema is nil")
	}

	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"kind": func(k form.Kind) string { return k.String() },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:  config,
		loader:  loader,
		schema:  schema,
		metrics: metrics,
		tmpl:    tmpl,
	}

	mux := http.NewServeMux()
	s.handle(mux, "GET /{$}", "/", s.handleIndex)
	s.handle(mux, "POST /{$}", "/", s.handleSubmit)
	s.handle(mux, "POST /api/predict", "/api/predict", s.handlePredict)
	s.handle(mux, "GET /health", "/health", s.handleHealth)
	s.handle(mux, "GET /model/info", "/model/info", s.handleModelInfo)
	if config.MetricsHandler != nil {
		s.handle(mux, "GET /metrics", "/metrics", config.MetricsHandler.ServeHTTP)
	}

	s.handler = Chain(s.loggingMiddleware, s.recoveryMiddleware)(mux)
	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

func (s *Server) handle(mux *http.ServeMux, pattern, route string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		setRoute(r.Context(), route)
		h(w, r)
	})
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting web server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
