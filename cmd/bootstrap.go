package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/zhibeky/quran-ai/internal/agent"
	"github.com/zhibeky/quran-ai/internal/corpus"
	"github.com/zhibeky/quran-ai/internal/index"
	"github.com/zhibeky/quran-ai/internal/llmclient"
)

// buildController assembles the retrieval pipeline: load the corpus, fit the
// lexical index over it, construct the model router, and wire everything into
// the reasoning controller.
func buildController(logger *zap.Logger) (*agent.Controller, error) {
	docs, err := corpus.Load(cfg.Corpus.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	idx := index.New(cfg.Index.Boosts, logger)
	idx.Fit(docs)
	logger.Info("Search index ready.", zap.Int("documents", idx.Len()))

	llm, err := llmclient.NewRouterFromConfig(cfg.Agent.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("building model router: %w", err)
	}

	return agent.NewController(idx, llm, cfg.Agent, logger), nil
}
