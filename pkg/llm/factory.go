package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewClient creates a provider client from config. Provider selects the
// vendor; an empty provider defaults to OpenAI-compatible.
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// WithModel returns a copy of cfg pointing at a different model. Used to
// build the fallback client attempted once after a model-access failure.
func (c *Config) WithModel(model string) *Config {
	out := *c
	out.Model = model
	return &out
}
