package cfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ListenAddr != ":8501" {
					t.Errorf("expected default ListenAddr :8501, got %s", settings.ListenAddr)
				}
				if settings.ModelPath != "house_price_model.pkl" {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
				if settings.FeaturesPath != "model_features.pkl" {
					t.Errorf("expected default FeaturesPath, got %s", settings.FeaturesPath)
				}
				if settings.PythonPath != "" {
					t.Errorf("expected empty PythonPath, got %s", settings.PythonPath)
				}
				if settings.PredictTimeout != 10*time.Second {
					t.Errorf("expected default PredictTimeout 10s, got %v", settings.PredictTimeout)
				}
				if !settings.MetricsEnabled {
					t.Error("expected metrics enabled by default")
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"LISTEN_ADDR":     "127.0.0.1:9000",
				"MODEL_PATH":      "/srv/models/model.pkl",
				"FEATURES_PATH":   "/srv/models/features.json",
				"PYTHON_PATH":     "/usr/bin/python3",
				"PREDICT_TIMEOUT": "3s",
				"LOG_LEVEL":       "debug",
				"LOG_FORMAT":      "json",
				"METRICS_ENABLED": "false",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ListenAddr != "127.0.0.1:9000" {
					t.Errorf("expected ListenAddr 127.0.0.1:9000, got %s", settings.ListenAddr)
				}
				if settings.FeaturesPath != "/srv/models/features.json" {
					t.Errorf("expected FeaturesPath override, got %s", settings.FeaturesPath)
				}
				if settings.PythonPath != "/usr/bin/python3" {
					t.Errorf("expected PythonPath override, got %s", settings.PythonPath)
				}
				if settings.PredictTimeout != 3*time.Second {
					t.Errorf("expected PredictTimeout 3s, got %v", settings.PredictTimeout)
				}
				if settings.LogFormat != "json" {
					t.Errorf("expected LogFormat json, got %s", settings.LogFormat)
				}
				if settings.MetricsEnabled {
					t.Error("expected metrics disabled")
				}
			},
		},
		{
			name:    "invalid duration falls back to default",
			envVars: map[string]string{"PREDICT_TIMEOUT": "soon"},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.PredictTimeout != 10*time.Second {
					t.Errorf("expected default PredictTimeout, got %v", settings.PredictTimeout)
				}
			},
		},
		{
			name:    "predict timeout out of range",
			envVars: map[string]string{"PREDICT_TIMEOUT": "1ms"},
			wantErr: true,
		},
		{
			name:    "unknown log format",
			envVars: map[string]string{"LOG_FORMAT": "xml"},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			envVars: map[string]string{"LOG_LEVEL": "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
server:
  listenAddr: ":8080"
  shutdownTimeout: "20s"
  metricsEnabled: false

model:
  modelPath: "artifacts/house_price_model.pkl"
  featuresPath: "artifacts/model_features.yaml"
  predictTimeout: "2s"
  loadTimeout: "90s"

logging:
  level: "warn"
  format: "json"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ListenAddr != ":8080" {
					t.Errorf("expected ListenAddr :8080, got %s", settings.ListenAddr)
				}
				if settings.ModelPath != "artifacts/house_price_model.pkl" {
					t.Errorf("unexpected ModelPath %s", settings.ModelPath)
				}
				if settings.FeaturesPath != "artifacts/model_features.yaml" {
					t.Errorf("unexpected FeaturesPath %s", settings.FeaturesPath)
				}
				if settings.PredictTimeout != 2*time.Second {
					t.Errorf("expected PredictTimeout 2s, got %v", settings.PredictTimeout)
				}
				if settings.LoadTimeout != 90*time.Second {
					t.Errorf("expected LoadTimeout 90s, got %v", settings.LoadTimeout)
				}
				if settings.ShutdownTimeout != 20*time.Second {
					t.Errorf("expected ShutdownTimeout 20s, got %v", settings.ShutdownTimeout)
				}
				if settings.MetricsEnabled {
					t.Error("expected metrics disabled")
				}
				if settings.LogLevel != "warn" || settings.LogFormat != "json" {
					t.Errorf("unexpected logging settings %s/%s", settings.LogLevel, settings.LogFormat)
				}
			},
		},
		{
			name: "YAML with env overrides",
			yamlContent: `
model:
  modelPath: "yaml_model.pkl"
  predictTimeout: "2s"
`,
			envOverrides: map[string]string{
				"MODEL_PATH":      "env_model.pkl",
				"PREDICT_TIMEOUT": "4s",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "env_model.pkl" {
					t.Errorf("expected env override ModelPath, got %s", settings.ModelPath)
				}
				if settings.PredictTimeout != 4*time.Second {
					t.Errorf("expected env override PredictTimeout 4s, got %v", settings.PredictTimeout)
				}
				if settings.FeaturesPath != "model_features.pkl" {
					t.Errorf("expected default FeaturesPath, got %s", settings.FeaturesPath)
				}
				if !settings.MetricsEnabled {
					t.Error("expected metrics enabled by default")
				}
			},
		},
		{
			name: "YAML with invalid values",
			yamlContent: `
logging:
  format: "xml"
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
			if err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	clearTestEnv(t)

	_, err := loadFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad(t *testing.T) {
	t.Run("load from env when no config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("MODEL_PATH", "env_model.pkl")

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.ModelPath != "env_model.pkl" {
			t.Errorf("expected ModelPath env_model.pkl, got %s", settings.ModelPath)
		}
	})

	t.Run("load from YAML when config file specified", func(t *testing.T) {
		clearTestEnv(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configPath, []byte("server:\n  listenAddr: \":9100\"\n"), 0o644); err != nil {
			t.Fatalf("failed to write test config file: %v", err)
		}
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.ListenAddr != ":9100" {
			t.Errorf("expected ListenAddr :9100, got %s", settings.ListenAddr)
		}
	})

	t.Run("dotenv file fills unset variables", func(t *testing.T) {
		clearTestEnv(t)
		dotenv := filepath.Join(t.TempDir(), "test.env")
		content := "MODEL_PATH=dotenv_model.pkl\nLISTEN_ADDR=:7000\n"
		if err := os.WriteFile(dotenv, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("DOTENV_FILE", dotenv)
		t.Setenv("LISTEN_ADDR", ":7100")
		// godotenv sets variables directly; restore them after the test.
		t.Cleanup(func() { os.Unsetenv("MODEL_PATH") })

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.ModelPath != "dotenv_model.pkl" {
			t.Errorf("expected ModelPath from env file, got %s", settings.ModelPath)
		}
		if settings.ListenAddr != ":7100" {
			t.Errorf("expected real environment to win, got %s", settings.ListenAddr)
		}
	})

	t.Run("missing dotenv file is ignored", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

		if _, err := Load(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestValidateSettings(t *testing.T) {
	valid := func() *Settings {
		return &Settings{
			ListenAddr:      ":8501",
			ModelPath:       "model.pkl",
			FeaturesPath:    "features.pkl",
			PredictTimeout:  time.Second,
			LoadTimeout:     time.Minute,
			ShutdownTimeout: 5 * time.Second,
			LogLevel:        "info",
			LogFormat:       "console",
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"valid", func(s *Settings) {}, ""},
		{"missing listen address", func(s *Settings) { s.ListenAddr = " " }, "listen address is required"},
		{"missing model path", func(s *Settings) { s.ModelPath = "" }, "model path is required"},
		{"missing features path", func(s *Settings) { s.FeaturesPath = "" }, "features path is required"},
		{"load timeout too long", func(s *Settings) { s.LoadTimeout = time.Hour }, "load timeout must be between"},
		{"shutdown timeout too short", func(s *Settings) { s.ShutdownTimeout = 0 }, "shutdown timeout must be between"},
		{"uppercase level accepted", func(s *Settings) { s.LogLevel = "DEBUG" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateSettings(s)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid settings, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "LISTEN_ADDR", "MODEL_PATH", "FEATURES_PATH", "PYTHON_PATH",
		"PREDICT_TIMEOUT", "LOAD_TIMEOUT", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"METRICS_ENABLED",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" {
			t.Setenv(env, "")
		}
	}
	// Point at a file that never exists so a stray .env in the package dir is not read.
	t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "none.env"))
}
