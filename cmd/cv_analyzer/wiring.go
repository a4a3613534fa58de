package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonathan/cv-keyword-analyzer/internal/analysis"
	"github.com/jonathan/cv-keyword-analyzer/internal/config"
	"github.com/jonathan/cv-keyword-analyzer/internal/extraction"
	"github.com/jonathan/cv-keyword-analyzer/internal/fetch"
	"github.com/jonathan/cv-keyword-analyzer/internal/llm"
	"github.com/jonathan/cv-keyword-analyzer/internal/logging"
	"github.com/jonathan/cv-keyword-analyzer/internal/pipeline"
)

// resolveConfig layers defaults, the config file, the environment and the
// persistent flags, in that order.
func resolveConfig(cmd *cobra.Command, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv(getenv)

	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger writes logs to stderr so stdout stays reserved for results.
func newLogger(cfg config.Config) (*logrus.Logger, error) {
	level := cfg.LogLevel
	if cfg.Verbose && level == "info" {
		level = "debug"
	}
	return logging.NewWithWriter(os.Stderr, level, cfg.LogFormat)
}

// closer releases what buildPipeline opened.
type closer func()

// buildPipeline wires the extractor, fetcher and analysis client.
func buildPipeline(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*pipeline.Pipeline, closer, error) {
	if cfg.APIKey == "" {
		key := "GEMINI_API_KEY"
		if cfg.Provider == string(llm.ProviderAnthropic) {
			key = "ANTHROPIC_API_KEY"
		}
		return nil, nil, fmt.Errorf("%s environment variable or api_key config value is required", key)
	}

	llmCfg, err := cfg.LLM()
	if err != nil {
		return nil, nil, err
	}
	provider, err := llm.NewProvider(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	opts := analysis.DefaultOptions(llmCfg)
	if cfg.MaxAttempts > 0 {
		opts.MaxAttempts = cfg.MaxAttempts
	}
	client := analysis.NewClient(provider, opts, log)

	fetchOpts := fetch.DefaultOptions()
	if cfg.FetchTimeoutSeconds > 0 {
		fetchOpts.Timeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	}
	fetcherOpts := []fetch.Option{
		fetch.WithOptions(fetchOpts),
		fetch.WithConcurrency(cfg.FetchConcurrency),
	}
	if cfg.UseBrowser {
		fetcherOpts = append(fetcherOpts, fetch.WithRenderer(fetch.NewChromeRenderer(log)))
	}
	fetcher := fetch.NewFetcher(log, fetcherOpts...)

	p := pipeline.New(extraction.New(log), fetcher, client, log)
	return p, func() { _ = provider.Close() }, nil
}
