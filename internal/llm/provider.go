package llm

import (
	"context"
	"fmt"
)

// Request is a single completion call.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Provider completes prompts. Implementations map vendor failures to *Error.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Close() error
}

// NewProvider builds the provider named in cfg.
func NewProvider(ctx context.Context, cfg *Config, apiKey string) (Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
