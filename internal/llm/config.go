// Package llm provides the provider abstraction the analysis client talks to,
// with Gemini and Anthropic adapters and a closed error classification.
package llm

// ModelTier selects which configured model an attempt uses.
type ModelTier string

const (
	// TierPrimary is tried first on every attempt.
	TierPrimary ModelTier = "primary"
	// TierFallback is tried once when the primary model fails within the same attempt.
	TierFallback ModelTier = "fallback"
)

// ProviderName identifies an LLM vendor.
type ProviderName string

const (
	// ProviderGemini is Google Gemini.
	ProviderGemini ProviderName = "gemini"
	// ProviderAnthropic is Anthropic Claude.
	ProviderAnthropic ProviderName = "anthropic"
)

// Config holds the provider and model selection.
type Config struct {
	Provider ProviderName
	Models   map[ModelTier]string
}

// DefaultConfig returns the default configuration (Gemini).
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini models.
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierPrimary:  "gemini-2.5-pro",
			TierFallback: "gemini-2.5-flash",
		},
	}
}

// DefaultAnthropicConfig returns the default Claude models.
func DefaultAnthropicConfig() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Models: map[ModelTier]string{
			TierPrimary:  "claude-sonnet-4-20250514",
			TierFallback: "claude-3-7-sonnet-latest",
		},
	}
}

// DefaultConfigFor returns the defaults of the named provider, or nil when it is unknown.
func DefaultConfigFor(name ProviderName) *Config {
	switch name {
	case ProviderGemini, "":
		return DefaultGeminiConfig()
	case ProviderAnthropic:
		return DefaultAnthropicConfig()
	default:
		return nil
	}
}

// GetModel returns the model for a tier. Unknown tiers resolve to the primary
// model; a missing fallback resolves to "" so the caller can skip it.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if tier == TierFallback {
		return ""
	}
	return c.Models[TierPrimary]
}

// WithModel returns a copy of c with model set for tier. An empty model removes the tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)+1),
	}
	for k, v := range c.Models {
		next.Models[k] = v
	}
	if model == "" {
		delete(next.Models, tier)
	} else {
		next.Models[tier] = model
	}
	return next
}
