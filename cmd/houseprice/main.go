package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"house-price/internal/cfg"
	"house-price/internal/common"
	"house-price/internal/form"
	"house-price/internal/metrics"
	"house-price/internal/ml"
	"house-price/internal/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics stay nil interfaces when disabled so nothing is recorded.
	var (
		modelMetrics ml.MetricsInterface
		webMetrics   web.MetricsInterface
		metricsRoute http.Handler
	)
	if c.MetricsEnabled {
		mw := metrics.NewWrapper(metrics.New())
		modelMetrics, webMetrics = mw, mw
		metricsRoute = promhttp.Handler()
	}

	store := ml.NewStore(ml.StoreConfig{
		ModelPath:      c.ModelPath,
		FeaturesPath:   c.FeaturesPath,
		PythonPath:     c.PythonPath,
		PredictTimeout: c.PredictTimeout,
		LoadTimeout:    c.LoadTimeout,
	}, modelMetrics)
	defer store.Close()

	// Load eagerly so a broken deployment shows up in the startup log. The
	// server still starts and renders the error banner.
	if model, err := store.Load(ctx); err != nil {
		log.Error().Err(err).
			Str("model_path", c.ModelPath).
			Str("features_path", c.FeaturesPath).
			Msg("model unavailable, serving error page until restart")
	} else {
		log.Info().Strs("features", model.ExpectedFeatures()).Msg("model ready")
	}

	server, err := web.NewServer(web.Config{
		Addr:           c.ListenAddr,
		ModelPath:      c.ModelPath,
		FeaturesPath:   c.FeaturesPath,
		MetricsHandler: metricsRoute,
	}, store, form.NewSchema(time.Now().Year()), webMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("web server setup failed")
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("web server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, c.ShutdownTimeout, server)
}

// setupLogging configures the global zerolog logger from settings.
func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond

	if c.LogFormat == common.LogFormatConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// waitForShutdown blocks until a signal arrives or the server fails, then
// drains in-flight requests within timeout.
func waitForShutdown(ctx context.Context, timeout time.Duration, server *web.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
		return
	}
	log.Info().Msg("web server stopped")
}
