package common

import "time"

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvDotEnvFile      = "DOTENV_FILE"
	EnvListenAddr      = "LISTEN_ADDR"
	EnvModelPath       = "MODEL_PATH"
	EnvFeaturesPath    = "FEATURES_PATH"
	EnvPythonPath      = "PYTHON_PATH"
	EnvPredictTimeout  = "PREDICT_TIMEOUT"
	EnvLoadTimeout     = "LOAD_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvMetricsEnabled  = "METRICS_ENABLED"
)

// Configuration defaults
const (
	DefaultDotEnvFile      = ".env"
	DefaultListenAddr      = ":8501"
	DefaultModelPath       = "house_price_model.pkl"
	DefaultFeaturesPath    = "model_features.pkl"
	DefaultPredictTimeout  = 10 * time.Second
	DefaultLoadTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	DefaultMetricsEnabled  = true
)

// Log formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Model feature names collected by dedicated widgets
const (
	FeatureOverallQual  = "OverallQual"
	FeatureGrLivArea    = "GrLivArea"
	FeatureGarageCars   = "GarageCars"
	FeatureTotalBsmtSF  = "TotalBsmtSF"
	FeatureFullBath     = "FullBath"
	FeatureYearBuilt    = "YearBuilt"
	FeatureFirstFlrSF   = "1stFlrSF"
	FeatureTotRmsAbvGrd = "TotRmsAbvGrd"
	FeatureYearRemodAdd = "YearRemodAdd"
	FeatureFireplaces   = "Fireplaces"
)

// Oldest construction year in the training data.
const MinHouseYear = 1872

// Validation constants
const (
	MinPredictTimeout  = 100 * time.Millisecond
	MaxPredictTimeout  = 5 * time.Minute
	MinLoadTimeout     = time.Second
	MaxLoadTimeout     = 10 * time.Minute
	MinShutdownTimeout = time.Second
	MaxShutdownTimeout = 5 * time.Minute
)

// Common error messages
const (
	ErrMsgModelPathRequired    = "model path is required"
	ErrMsgFeaturesPathRequired = "features path is required"
	ErrMsgListenAddrRequired   = "listen address is required"
)
