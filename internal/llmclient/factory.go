package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/zhibeky/quran-ai/api/schemas"
	"github.com/zhibeky/quran-ai/internal/config"
)

// newClientForModel creates an LLM client for a single model configuration.
func newClientForModel(cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: %q. Supported: [%s, %s]",
			cfg.Provider, config.ProviderGemini, config.ProviderOpenAI)
	}
}

// NewRouterFromConfig builds the tiered router from the LLM router
// configuration, instantiating one client per referenced model.
func NewRouterFromConfig(cfg config.LLMRouterConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	fastCfg, ok := cfg.Models[cfg.DefaultFastModel]
	if !ok {
		return nil, fmt.Errorf("default fast model %q is not defined in agent.llm.models", cfg.DefaultFastModel)
	}
	powerfulCfg, ok := cfg.Models[cfg.DefaultPowerfulModel]
	if !ok {
		return nil, fmt.Errorf("default powerful model %q is not defined in agent.llm.models", cfg.DefaultPowerfulModel)
	}

	fastClient, err := newClientForModel(fastCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create fast tier client: %w", err)
	}
	powerfulClient, err := newClientForModel(powerfulCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create powerful tier client: %w", err)
	}

	return NewLLMRouter(logger, fastClient, powerfulClient, cfg.RequestsPerMinute)
}
