package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewClient creates an LLM client for the configured provider.
// Returns the Client interface to enable dependency injection of mocks.
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
