package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"house-price/internal/batch"
	"house-price/internal/cfg"
	"house-price/internal/form"
	"house-price/internal/ml"
	"house-price/internal/web"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		inputPath    = flag.String("input", "", "CSV or JSON file with one house per row (required)")
		outputPath   = flag.String("output", "batch_results", "Output directory for results")
		modelPath    = flag.String("model", "", "Path to the model artifact (overrides config)")
		featuresPath = flag.String("features", "", "Path to the feature list (overrides config)")
		pythonPath   = flag.String("python", "", "Python interpreter (overrides config)")
		logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *modelPath != "" {
		config.ModelPath = *modelPath
	}
	if *featuresPath != "" {
		config.FeaturesPath = *featuresPath
	}
	if *pythonPath != "" {
		config.PythonPath = *pythonPath
	}

	fmt.Println("=== Batch Configuration ===")
	fmt.Printf("Input: %s\n", *inputPath)
	fmt.Printf("Model Path: %s\n", config.ModelPath)
	fmt.Printf("Features Path: %s\n", config.FeaturesPath)
	fmt.Printf("Output Directory: %s\n", *outputPath)
	fmt.Println("===========================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := batch.Load(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load input")
	}

	store := ml.NewStore(ml.StoreConfig{
		ModelPath:      config.ModelPath,
		FeaturesPath:   config.FeaturesPath,
		PythonPath:     config.PythonPath,
		PredictTimeout: config.PredictTimeout,
		LoadTimeout:    config.LoadTimeout,
	}, nil)
	defer store.Close()

	model, err := store.Load(ctx)
	if err != nil {
		store.Close()
		log.Fatal().Err(err).Msg("Failed to load model")
	}

	engine := batch.NewEngine(model, form.NewSchema(time.Now().Year()), web.FormatPrice)
	results, runErr := engine.Run(ctx, records)

	reporter := batch.NewReporter(results, *outputPath)
	if err := reporter.GenerateReport(); err != nil {
		log.Error().Err(err).Msg("Failed to generate reports")
	}
	reporter.PrintSummary(os.Stdout, web.FormatPrice)

	if runErr != nil {
		log.Warn().Err(runErr).Msg("Batch run interrupted")
		return
	}
	log.Info().Str("output", *outputPath).Msg("Batch completed successfully")
}
