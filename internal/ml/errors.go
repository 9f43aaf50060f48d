package ml

import (
	"errors"
	"fmt"
)

// ErrArtifactMissing is wrapped by LoadError when an artifact file does not exist.
var ErrArtifactMissing = errors.New("model artifact missing")

// Artifact kinds reported by LoadError.
const (
	ArtifactModel    = "model"
	ArtifactFeatures = "features"
	ArtifactWorker   = "worker"
)

// LoadError means the model could not be made available. It is fatal for the
// process: the store never retries.
type LoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// PredictionError carries the diagnostic for a single failed prediction. The
// model stays usable for the next request.
type PredictionError struct {
	Msg string
	Err error
}

func (e *PredictionError) Error() string {
	if e.Err == nil {
		return "prediction failed: " + e.Msg
	}
	if e.Msg == "" {
		return "prediction failed: " + e.Err.Error()
	}
	return fmt.Sprintf("prediction failed: %s: %v", e.Msg, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}
