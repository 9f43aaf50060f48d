package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"house-price/internal/common"
	"house-price/internal/features"
	"house-price/internal/form"
	"house-price/internal/ml"
	"house-price/internal/web"
)

// Loads the artifacts the way the server does and scores one default house.
// Usage: go run ./scripts/check-model [model_path] [features_path]
func main() {
	modelPath := common.DefaultModelPath
	featuresPath := common.DefaultFeaturesPath
	if len(os.Args) > 1 {
		modelPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		featuresPath = os.Args[2]
	}

	fmt.Println("Checking model artifacts")
	fmt.Println("========================")
	fmt.Printf("Model:    %s\n", modelPath)
	fmt.Printf("Features: %s\n", featuresPath)

	python, err := ml.FindPython()
	if err != nil {
		log.Fatalf("No usable Python: %v", err)
	}
	fmt.Printf("Python:   %s\n", python)

	store := ml.NewStore(ml.StoreConfig{
		ModelPath:      modelPath,
		FeaturesPath:   featuresPath,
		PythonPath:     python,
		PredictTimeout: common.DefaultPredictTimeout,
		LoadTimeout:    common.DefaultLoadTimeout,
	}, nil)
	defer store.Close()

	model, err := store.Load(context.Background())
	if err != nil {
		store.Close()
		log.Fatalf("Load failed: %v", err)
	}
	info := model.Info()
	fmt.Printf("Loaded in %s, %d features\n", info.LoadDuration.Round(time.Millisecond), len(model.ExpectedFeatures()))

	schema := form.NewSchema(time.Now().Year())
	inputs, verrs := form.Parse(schema.Fields(model.ExpectedFeatures()), nil)
	if len(verrs) > 0 {
		store.Close()
		log.Fatalf("Default inputs invalid: %v", verrs)
	}

	row := features.Assemble(model.ExpectedFeatures(), inputs)
	fmt.Printf("Row:      %s\n", row)

	start := time.Now()
	price, err := model.Predict(context.Background(), row)
	if err != nil {
		store.Close()
		log.Fatalf("Prediction failed: %v", err)
	}
	fmt.Printf("Price:    %s (%s)\n", web.FormatPrice(price), time.Since(start).Round(time.Millisecond))
	fmt.Println("All checks passed")
}
