// Package config loads application configuration from file, environment
// and defaults, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/archivelab/docmeta/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Aggregate  AggregateConfig  `yaml:"aggregate" mapstructure:"aggregate"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Ollama     OllamaConfig     `yaml:"ollama" mapstructure:"ollama"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Feedback   FeedbackConfig   `yaml:"feedback" mapstructure:"feedback"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ExtractionConfig tunes the engine and the analyzer.
type ExtractionConfig struct {
	Mode            string  `yaml:"mode" mapstructure:"mode"`
	Priority        string  `yaml:"priority" mapstructure:"priority"`
	MaxWorkers      int     `yaml:"max_workers" mapstructure:"max_workers"`
	TaskTimeoutSecs int     `yaml:"task_timeout_secs" mapstructure:"task_timeout_secs"`
	RunTimeoutSecs  int     `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
	RatePerSecond   float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst       int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	ContextBudget   int     `yaml:"context_budget" mapstructure:"context_budget"`
	FieldSpecPath   string  `yaml:"field_spec_path" mapstructure:"field_spec_path"`
	// ClassifierBackend names a catalog entry used for document type
	// classification when pattern scoring is inconclusive. Empty
	// disables the delegated call.
	ClassifierBackend string `yaml:"classifier_backend" mapstructure:"classifier_backend"`
}

// AggregateConfig tunes disagreement resolution.
type AggregateConfig struct {
	// Epsilon is the confidence gap treated as a tie between disagreeing
	// backends.
	Epsilon float64 `yaml:"epsilon" mapstructure:"epsilon"`
}

// RetryConfig tunes the optional backend retry wrapper. Retries are off
// by default; the engine records failures instead of retrying.
type RetryConfig struct {
	Enabled          bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// OllamaConfig holds local Ollama server settings.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CatalogConfig selects the model catalog source.
type CatalogConfig struct {
	// Path points to a YAML catalog file. Empty uses the built-in
	// catalog.
	Path   string               `yaml:"path" mapstructure:"path"`
	Models []model.ModelProfile `yaml:"models" mapstructure:"models"`
}

// FeedbackConfig configures the feedback store.
type FeedbackConfig struct {
	// Path is the SQLite database location. Empty disables recording.
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("extraction.mode", "parallel")
	v.SetDefault("extraction.priority", "balanced")
	v.SetDefault("extraction.max_workers", 4)
	v.SetDefault("extraction.task_timeout_secs", 45)
	v.SetDefault("extraction.run_timeout_secs", 300)
	v.SetDefault("extraction.rate_per_second", 5.0)
	v.SetDefault("extraction.rate_burst", 10)
	v.SetDefault("extraction.context_budget", 2000)
	v.SetDefault("aggregate.epsilon", 0.05)
	v.SetDefault("retry.enabled", false)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.failure_threshold", 5)
	v.SetDefault("retry.reset_timeout_secs", 30)
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for an extraction run.
func (c *Config) Validate() error {
	var problems []string

	if _, err := model.ParseMode(c.Extraction.Mode); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := model.ParsePriority(c.Extraction.Priority); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Extraction.MaxWorkers < 1 || c.Extraction.MaxWorkers > 64 {
		problems = append(problems, "extraction.max_workers must be between 1 and 64")
	}
	if c.Extraction.TaskTimeoutSecs < 1 {
		problems = append(problems, "extraction.task_timeout_secs must be > 0")
	}
	if c.Aggregate.Epsilon < 0 || c.Aggregate.Epsilon > 1 {
		problems = append(problems, "aggregate.epsilon must be in [0, 1]")
	}
	if c.Retry.Enabled && c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max_attempts must be >= 1 when retries are enabled")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
