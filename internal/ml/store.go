package ml

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// StoreConfig contains configuration for the model store
type StoreConfig struct {
	ModelPath      string
	FeaturesPath   string
	PythonPath     string // empty means FindPython
	WorkerScript   string // empty means the embedded script
	PredictTimeout time.Duration
	LoadTimeout    time.Duration
}

// Store loads the model artifacts once per process. The first Load does the work;
// every later call returns the same model or the same error.
type Store struct {
	config  StoreConfig
	metrics MetricsInterface

	once   sync.Once
	model  *Model
	err    error
	worker *PythonWorker
}

func NewStore(config StoreConfig, metrics MetricsInterface) *Store {
	return &Store{config: config, metrics: metrics}
}

// Load returns the cached model, loading it on first use. A non-nil error is
// always a *LoadError.
func (s *Store) Load(ctx context.Context) (*Model, error) {
	s.once.Do(func() {
		// The first caller may be a request about to be cancelled; the load must
		// not be tied to it.
		s.model, s.err = s.load(context.WithoutCancel(ctx))
		if s.metrics != nil {
			s.metrics.ModelLoadedSet(s.err == nil)
		}
	})
	return s.model, s.err
}

// Close stops the inference worker if one was started.
func (s *Store) Close() error {
	s.once.Do(func() {
		s.err = &LoadError{Artifact: ArtifactModel, Path: s.config.ModelPath, Err: errors.New("store closed")}
	})
	if s.worker != nil {
		return s.worker.Close()
	}
	return nil
}

func (s *Store) load(ctx context.Context) (*Model, error) {
	start := time.Now()

	modelInfo, err := statArtifact(ArtifactModel, s.config.ModelPath)
	if err != nil {
		return nil, err
	}
	if _, err := statArtifact(ArtifactFeatures, s.config.FeaturesPath); err != nil {
		return nil, err
	}

	var names []string
	workerFeatures := s.config.FeaturesPath
	if nativeFeatureList(s.config.FeaturesPath) {
		names, err = readFeatureNames(s.config.FeaturesPath)
		if err == nil {
			err = validateFeatureNames(names)
		}
		if err != nil {
			return nil, &LoadError{Artifact: ArtifactFeatures, Path: s.config.FeaturesPath, Err: err}
		}
		workerFeatures = ""
	}

	interpreter := s.config.PythonPath
	if interpreter == "" {
		interpreter, err = FindPython()
		if err != nil {
			return nil, &LoadError{Artifact: ArtifactWorker, Err: err}
		}
	}

	worker, err := NewPythonWorker(WorkerConfig{
		Interpreter:  interpreter,
		Script:       s.config.WorkerScript,
		ModelPath:    s.config.ModelPath,
		FeaturesPath: workerFeatures,
		StartTimeout: s.config.LoadTimeout,
	})
	if err != nil {
		return nil, &LoadError{Artifact: ArtifactWorker, Err: err}
	}

	loaded, err := worker.Start(ctx)
	if err != nil {
		worker.Close()
		return nil, &LoadError{Artifact: ArtifactModel, Path: s.config.ModelPath, Err: err}
	}
	if names == nil {
		names = loaded
	}

	model, err := NewModel(worker, names, s.config.PredictTimeout, s.metrics)
	if err != nil {
		worker.Close()
		return nil, &LoadError{Artifact: ArtifactFeatures, Path: s.config.FeaturesPath, Err: err}
	}
	s.worker = worker

	model.info = Info{
		ModelPath:    s.config.ModelPath,
		FeaturesPath: s.config.FeaturesPath,
		Interpreter:  interpreter,
		ModelModTime: modelInfo.ModTime(),
		LoadedAt:     time.Now(),
		LoadDuration: time.Since(start),
	}

	if s.metrics != nil {
		s.metrics.ModelLoadDurationObserve(model.info.LoadDuration.Seconds())
		s.metrics.ModelAgeSet(time.Since(model.info.ModelModTime).Seconds())
	}

	log.Info().
		Str("model_path", s.config.ModelPath).
		Str("features_path", s.config.FeaturesPath).
		Int("features", len(names)).
		Dur("load_duration", model.info.LoadDuration).
		Msg("model loaded")

	return model, nil
}

func statArtifact(kind, path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Artifact: kind, Path: path, Err: ErrArtifactMissing}
		}
		return nil, &LoadError{Artifact: kind, Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Artifact: kind, Path: path, Err: fmt.Errorf("is a directory")}
	}
	return info, nil
}
