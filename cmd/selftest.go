package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhibeky/quran-ai/api/schemas"
	"github.com/zhibeky/quran-ai/internal/corpus"
	"github.com/zhibeky/quran-ai/internal/index"
	"github.com/zhibeky/quran-ai/internal/llmclient"
	"github.com/zhibeky/quran-ai/internal/observability"
)

var selftestWithLLM bool

// selftestCmd sanity-checks the pipeline pieces one by one so a broken
// deployment fails loudly before the bot goes live.
var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Verify corpus loading, index search, and (optionally) model connectivity.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		defer observability.Sync()
		out := cmd.OutOrStdout()

		docs, err := corpus.Load(cfg.Corpus.Path, logger)
		if err != nil {
			return fmt.Errorf("corpus check failed: %w", err)
		}
		fmt.Fprintf(out, "corpus: ok (%d documents)\n", len(docs))

		idx := index.New(cfg.Index.Boosts, logger)
		idx.Fit(docs)
		for _, query := range []string{"patience", "prayer", "mercy"} {
			results, err := idx.Search(cmd.Context(), query, cfg.Agent.SearchResults)
			if err != nil {
				return fmt.Errorf("index check failed for %q: %w", query, err)
			}
			ref := "-"
			if len(results) > 0 {
				ref = results[0].Reference
			}
			fmt.Fprintf(out, "search %q: %d results (top: %s)\n", query, len(results), ref)
		}

		if !selftestWithLLM {
			fmt.Fprintln(out, "llm: skipped (use --llm to test connectivity)")
			return nil
		}

		llm, err := llmclient.NewRouterFromConfig(cfg.Agent.LLM, logger)
		if err != nil {
			return fmt.Errorf("llm check failed: %w", err)
		}
		resp, err := llm.Generate(cmd.Context(), schemas.GenerationRequest{
			SystemPrompt: "You are a connectivity probe.",
			UserPrompt:   "Reply with the single word: ok",
			Tier:         schemas.TierFast,
		})
		if err != nil {
			return fmt.Errorf("llm check failed: %w", err)
		}
		logger.Info("Model connectivity verified.", zap.Int("response_length", len(resp)))
		fmt.Fprintln(out, "llm: ok")
		return nil
	},
}

func init() {
	selftestCmd.Flags().BoolVar(&selftestWithLLM, "llm", false, "also verify model connectivity")
	rootCmd.AddCommand(selftestCmd)
}
