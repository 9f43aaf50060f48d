package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"house-price/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenAddr      string
	ModelPath       string
	FeaturesPath    string
	PythonPath      string
	PredictTimeout  time.Duration
	LoadTimeout     time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
	MetricsEnabled  bool
}

type ConfigFile struct {
	Server struct {
		ListenAddr      string `yaml:"listenAddr"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
		MetricsEnabled  *bool  `yaml:"metricsEnabled"`
	} `yaml:"server"`

	Model struct {
		ModelPath      string `yaml:"modelPath"`
		FeaturesPath   string `yaml:"featuresPath"`
		PythonPath     string `yaml:"pythonPath"`
		PredictTimeout string `yaml:"predictTimeout"`
		LoadTimeout    string `yaml:"loadTimeout"`
	} `yaml:"model"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func Load() (Settings, error) {
	if err := loadDotEnv(); err != nil {
		return Settings{}, err
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

// loadDotEnv reads KEY=VALUE pairs from the dotenv file into the process
// environment. Variables already set in the environment win.
func loadDotEnv() error {
	path := getEnvOrDefault(common.EnvDotEnvFile, common.DefaultDotEnvFile)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	predictTimeout, err := time.ParseDuration(config.Model.PredictTimeout)
	if err != nil {
		predictTimeout = common.DefaultPredictTimeout
	}

	loadTimeout, err := time.ParseDuration(config.Model.LoadTimeout)
	if err != nil {
		loadTimeout = common.DefaultLoadTimeout
	}

	shutdownTimeout, err := time.ParseDuration(config.Server.ShutdownTimeout)
	if err != nil {
		shutdownTimeout = common.DefaultShutdownTimeout
	}

	metricsEnabled := common.DefaultMetricsEnabled
	if config.Server.MetricsEnabled != nil {
		metricsEnabled = *config.Server.MetricsEnabled
	}

	settings := Settings{
		ListenAddr:      getEnvOrDefault(common.EnvListenAddr, orDefault(config.Server.ListenAddr, common.DefaultListenAddr)),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.ModelPath, common.DefaultModelPath)),
		FeaturesPath:    getEnvOrDefault(common.EnvFeaturesPath, orDefault(config.Model.FeaturesPath, common.DefaultFeaturesPath)),
		PythonPath:      getEnvOrDefault(common.EnvPythonPath, config.Model.PythonPath),
		PredictTimeout:  getDurationOrDefault(common.EnvPredictTimeout, predictTimeout),
		LoadTimeout:     getDurationOrDefault(common.EnvLoadTimeout, loadTimeout),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, shutdownTimeout),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:       getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
		MetricsEnabled:  getBoolOrDefault(common.EnvMetricsEnabled, metricsEnabled),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenAddr:      getEnvOrDefault(common.EnvListenAddr, common.DefaultListenAddr),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		FeaturesPath:    getEnvOrDefault(common.EnvFeaturesPath, common.DefaultFeaturesPath),
		PythonPath:      os.Getenv(common.EnvPythonPath), // optional, auto-detected when empty
		PredictTimeout:  getDurationOrDefault(common.EnvPredictTimeout, common.DefaultPredictTimeout),
		LoadTimeout:     getDurationOrDefault(common.EnvLoadTimeout, common.DefaultLoadTimeout),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, common.DefaultShutdownTimeout),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:       getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		MetricsEnabled:  getBoolOrDefault(common.EnvMetricsEnabled, common.DefaultMetricsEnabled),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, defaultValue string) string {
	if strings.TrimSpace(v) == "" {
		return defaultValue
	}
	return v
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if strings.TrimSpace(settings.ListenAddr) == "" {
		return errors.New(common.ErrMsgListenAddrRequired)
	}
	if strings.TrimSpace(settings.ModelPath) == "" {
		return errors.New(common.ErrMsgModelPathRequired)
	}
	if strings.TrimSpace(settings.FeaturesPath) == "" {
		return errors.New(common.ErrMsgFeaturesPathRequired)
	}

	if settings.PredictTimeout < common.MinPredictTimeout || settings.PredictTimeout > common.MaxPredictTimeout {
		return fmt.Errorf("predict timeout must be between %v and %v, got %v",
			common.MinPredictTimeout, common.MaxPredictTimeout, settings.PredictTimeout)
	}
	if settings.LoadTimeout < common.MinLoadTimeout || settings.LoadTimeout > common.MaxLoadTimeout {
		return fmt.Errorf("load timeout must be between %v and %v, got %v",
			common.MinLoadTimeout, common.MaxLoadTimeout, settings.LoadTimeout)
	}
	if settings.ShutdownTimeout < common.MinShutdownTimeout || settings.ShutdownTimeout > common.MaxShutdownTimeout {
		return fmt.Errorf("shutdown timeout must be between %v and %v, got %v",
			common.MinShutdownTimeout, common.MaxShutdownTimeout, settings.ShutdownTimeout)
	}

	switch strings.ToLower(settings.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	switch settings.LogFormat {
	case common.LogFormatConsole, common.LogFormatJSON:
	default:
		return fmt.Errorf("log format must be %q or %q, got %q",
			common.LogFormatConsole, common.LogFormatJSON, settings.LogFormat)
	}

	return nil
}
