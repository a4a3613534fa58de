package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"provider": "anthropic",
		"primary_model": "claude-custom",
		"fetch_concurrency": 1,
		"verbose": true,
		"storage": {"endpoint": "http://localhost:9000", "use_path_style": true}
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-custom", cfg.PrimaryModel)
	assert.Equal(t, 1, cfg.FetchConcurrency)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Endpoint)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	defaults := Defaults()
	require.NoError(t, defaults.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "openai" }},
		{"negative attempts", func(c *Config) { c.MaxAttempts = -1 }},
		{"too many attempts", func(c *Config) { c.MaxAttempts = 50 }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"bad endpoint", func(c *Config) { c.Storage.Endpoint = "not a url" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error")
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Provider: "anthropic", FetchConcurrency: 1}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "anthropic", merged.Provider)
	assert.Equal(t, 1, merged.FetchConcurrency)
	assert.Equal(t, 3, merged.MaxAttempts)
	assert.Equal(t, 8080, merged.Port)
	assert.Equal(t, "us-east-1", merged.Storage.Region)
	assert.Empty(t, cfg.LogLevel, "receiver must not change")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LLM_PROVIDER":      "Anthropic",
		"ANTHROPIC_API_KEY": "sk-ant",
		"GEMINI_API_KEY":    "gm-key",
		"DATABASE_URL":      "postgres://localhost/cv",
		"S3_USE_PATH_STYLE": "true",
		"PORT":              "9090",
	}
	cfg := Defaults()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "sk-ant", cfg.APIKey)
	assert.Equal(t, "postgres://localhost/cv", cfg.DatabaseURL)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, 9090, cfg.Port)
}

func TestApplyEnv_GeminiKeyAndEmptyValues(t *testing.T) {
	cfg := Defaults()
	cfg.APIKey = "from-file"
	cfg.ApplyEnv(func(k string) string {
		if k == "PORT" {
			return "not-a-number"
		}
		return ""
	})

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, 8080, cfg.Port)

	cfg.ApplyEnv(func(k string) string {
		if k == "GEMINI_API_KEY" {
			return "gm-key"
		}
		return ""
	})
	assert.Equal(t, "gm-key", cfg.APIKey)
}

func TestLLM(t *testing.T) {
	cfg := Defaults()
	got, err := cfg.LLM()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, got.Provider)
	assert.Equal(t, "gemini-2.5-pro", got.GetModel(llm.TierPrimary))

	cfg.Provider = "anthropic"
	cfg.FallbackModel = "claude-haiku"
	got, err = cfg.LLM()
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku", got.GetModel(llm.TierFallback))

	cfg.Provider = "openai"
	_, err = cfg.LLM()
	assert.Error(t, err)
}
