// Package config loads process configuration from the environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/leofalp/aigochat/core/middleware"
	"github.com/leofalp/aigochat/core/registry"
	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/observability/slogobs"
)

// Config is the resolved process configuration.
type Config struct {
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	OpenAIBaseURL    string `mapstructure:"openai_api_base_url"`
	AnthropicAPIKey  string `mapstructure:"anthropic_api_key"`
	AnthropicBaseURL string `mapstructure:"anthropic_api_base_url"`
	GeminiAPIKey     string `mapstructure:"gemini_api_key"`
	GeminiBaseURL    string `mapstructure:"gemini_api_base_url"`

	// FrontendURL is the only origin allowed by CORS.
	FrontendURL string `mapstructure:"frontend_url"`

	// DatabaseURL selects the conversation store, see storage.Open.
	DatabaseURL string `mapstructure:"database_url"`
	ListenAddr  string `mapstructure:"listen_addr"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// StreamLogLevel is the detail of vendor stream logs: minimal, standard
	// or verbose. Verbose logs prompts and replies.
	StreamLogLevel string `mapstructure:"stream_log_level"`

	// StreamTimeout bounds one vendor stream end to end. Zero disables it.
	StreamTimeout time.Duration `mapstructure:"stream_timeout"`

	PersistTimeout  time.Duration `mapstructure:"persist_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var defaults = map[string]any{
	"frontend_url":     "http://localhost:5173",
	"database_url":     "file:chat.db",
	"listen_addr":      ":8000",
	"log_level":        "info",
	"log_format":       "compact",
	"stream_log_level": "standard",
	"stream_timeout":   5 * time.Minute,
	"persist_timeout":  10 * time.Second,
	"shutdown_timeout": 15 * time.Second,
}

// envBindings maps config keys to environment variables, first set wins.
var envBindings = map[string][]string{
	"openai_api_key":         {"OPENAI_API_KEY"},
	"openai_api_base_url":    {"OPENAI_API_BASE_URL"},
	"anthropic_api_key":      {"ANTHROPIC_API_KEY"},
	"anthropic_api_base_url": {"ANTHROPIC_API_BASE_URL"},
	"gemini_api_key":         {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"gemini_api_base_url":    {"GEMINI_API_BASE_URL"},
	"frontend_url":           {"FRONTEND_URL"},
	"database_url":           {"DATABASE_URL"},
	"listen_addr":            {"LISTEN_ADDR"},
	"log_level":              {"AIGOCHAT_LOG_LEVEL", "LOG_LEVEL"},
	"log_format":             {"AIGOCHAT_LOG_FORMAT", "LOG_FORMAT"},
	"stream_log_level":       {"STREAM_LOG_LEVEL"},
	"stream_timeout":         {"STREAM_TIMEOUT"},
	"persist_timeout":        {"PERSIST_TIMEOUT"},
	"shutdown_timeout":       {"SHUTDOWN_TIMEOUT"},
}

// Load reads .env from the working directory if present, then resolves the
// configuration from defaults, the config file at path (skipped when empty)
// and the environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("database_url must not be empty"))
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("listen_addr must not be empty"))
	}
	if _, err := parseStreamLogLevel(c.StreamLogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.StreamTimeout < 0 {
		errs = append(errs, fmt.Errorf("stream_timeout must not be negative, got %s", c.StreamTimeout))
	}
	if c.PersistTimeout <= 0 {
		errs = append(errs, fmt.Errorf("persist_timeout must be positive, got %s", c.PersistTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// VendorConfigs returns the registry input for every known vendor. Vendors
// without a key are included so the registry can report them as disabled.
func (c *Config) VendorConfigs() map[ai.Vendor]registry.VendorConfig {
	return map[ai.Vendor]registry.VendorConfig{
		ai.VendorOpenAI: {APIKey: c.OpenAIAPIKey, BaseURL: c.OpenAIBaseURL},
		ai.VendorClaude: {APIKey: c.AnthropicAPIKey, BaseURL: c.AnthropicBaseURL},
		ai.VendorGoogle: {APIKey: c.GeminiAPIKey, BaseURL: c.GeminiBaseURL},
	}
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	return slogobs.ParseLogLevel(c.LogLevel)
}

// StreamLogDetail returns the detail level for vendor stream logs.
func (c *Config) StreamLogDetail() middleware.LogLevel {
	level, _ := parseStreamLogLevel(c.StreamLogLevel)
	return level
}

func parseStreamLogLevel(s string) (middleware.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return middleware.LogLevelMinimal, nil
	case "", "standard":
		return middleware.LogLevelStandard, nil
	case "verbose":
		return middleware.LogLevelVerbose, nil
	default:
		return middleware.LogLevelStandard, fmt.Errorf("stream_log_level must be minimal, standard or verbose, got %q", s)
	}
}

// Format returns the configured log format.
func (c *Config) Format() slogobs.Format {
	return slogobs.ParseFormat(c.LogFormat)
}
