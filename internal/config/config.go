// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment
// variables or CLI flags.
type Config struct {
	// LLM
	Provider      string `json:"provider,omitempty" validate:"omitempty,oneof=gemini anthropic"`
	APIKey        string `json:"api_key,omitempty"`
	PrimaryModel  string `json:"primary_model,omitempty"`
	FallbackModel string `json:"fallback_model,omitempty"`
	MaxAttempts   int    `json:"max_attempts,omitempty" validate:"gte=0,lte=10"`

	// Job fetching
	FetchConcurrency    int  `json:"fetch_concurrency,omitempty" validate:"gte=0,lte=16"`
	FetchTimeoutSeconds int  `json:"fetch_timeout_seconds,omitempty" validate:"gte=0,lte=300"`
	UseBrowser          bool `json:"use_browser,omitempty"` // Re-render thin pages with headless Chrome

	// Persistence
	DatabaseURL string `json:"database_url,omitempty"`

	// Server and logging
	Port      int    `json:"port,omitempty" validate:"gte=0,lte=65535"`
	LogLevel  string `json:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error"`
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=text json"`
	Verbose   bool   `json:"verbose,omitempty"`

	Storage StorageConfig `json:"storage"`
}

// StorageConfig configures S3-compatible object storage for résumé downloads.
type StorageConfig struct {
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" validate:"omitempty,url"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	UsePathStyle    bool   `json:"use_path_style,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Provider:            string(llm.ProviderGemini),
		MaxAttempts:         3,
		FetchConcurrency:    2,
		FetchTimeoutSeconds: 15,
		Port:                8080,
		LogLevel:            "info",
		LogFormat:           "text",
		Storage:             StorageConfig{Region: "us-east-1"},
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.PrimaryModel == "" {
		result.PrimaryModel = defaults.PrimaryModel
	}
	if result.FallbackModel == "" {
		result.FallbackModel = defaults.FallbackModel
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.Storage.Region == "" {
		result.Storage.Region = defaults.Storage.Region
	}
	if result.Storage.Endpoint == "" {
		result.Storage.Endpoint = defaults.Storage.Endpoint
	}

	// Int fields: use default if zero
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.FetchConcurrency == 0 {
		result.FetchConcurrency = defaults.FetchConcurrency
	}
	if result.FetchTimeoutSeconds == 0 {
		result.FetchTimeoutSeconds = defaults.FetchTimeoutSeconds
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overrides fields from environment variables read through getenv.
// The API key variable depends on the provider.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.Provider, "LLM_PROVIDER")
	c.Provider = strings.ToLower(c.Provider)
	if c.Provider == string(llm.ProviderAnthropic) {
		setString(&c.APIKey, "ANTHROPIC_API_KEY")
	} else {
		setString(&c.APIKey, "GEMINI_API_KEY")
	}
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.Storage.Region, "S3_REGION")
	setString(&c.Storage.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.Storage.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	if v, err := strconv.ParseBool(getenv("S3_USE_PATH_STYLE")); err == nil {
		c.Storage.UsePathStyle = v
	}
	if v, err := strconv.Atoi(getenv("PORT")); err == nil {
		c.Port = v
	}
}

// LLM returns the provider and model selection, starting from the provider's
// defaults and applying any configured model names.
func (c *Config) LLM() (*llm.Config, error) {
	cfg := llm.DefaultConfigFor(llm.ProviderName(c.Provider))
	if cfg == nil {
		return nil, fmt.Errorf("config error: unknown provider %q", c.Provider)
	}
	if c.PrimaryModel != "" {
		cfg = cfg.WithModel(llm.TierPrimary, c.PrimaryModel)
	}
	if c.FallbackModel != "" {
		cfg = cfg.WithModel(llm.TierFallback, c.FallbackModel)
	}
	return cfg, nil
}
