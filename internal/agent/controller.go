package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhibeky/quran-ai/api/schemas"
	"github.com/zhibeky/quran-ai/internal/config"
)

// Controller drives the agentic retrieval loop. It owns no shared mutable
// state: each question gets a fresh loop state, so one Controller serves any
// number of concurrent questions against the shared index and model client.
type Controller struct {
	searcher schemas.Searcher
	llm      schemas.LLMClient
	cfg      config.AgentConfig
	logger   *zap.Logger
}

// NewController wires the loop to its two external collaborators, supplied
// explicitly so tests can substitute doubles.
func NewController(searcher schemas.Searcher, llm schemas.LLMClient, cfg config.AgentConfig, logger *zap.Logger) *Controller {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 3
	}
	if cfg.SearchResults <= 0 {
		cfg.SearchResults = 5
	}
	return &Controller{
		searcher: searcher,
		llm:      llm,
		cfg:      cfg,
		logger:   logger.Named("agent"),
	}
}

// AnswerQuestion runs the full loop for one question and always returns a
// non-empty, user-displayable string. Every internal failure is converted to
// a fallback answer here; nothing propagates to the delivery layer.
func (c *Controller) AnswerQuestion(ctx context.Context, question string) (answer string) {
	qid := uuid.NewString()
	log := c.logger.With(zap.String("question_id", qid))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic recovered during question processing", zap.Any("panic_value", r), zap.Stack("stack"))
			answer = fallbackErrorAnswer
		}
	}()

	decision, err := c.agenticSearch(ctx, question, log)
	if err != nil {
		log.Error("Agentic search failed", zap.Error(err))
		return fallbackErrorAnswer
	}

	return answerFromDecision(decision)
}

// agenticSearch is the core state machine. It terminates within
// MaxIterations model invocations: each iteration either produces a terminal
// decision or advances the iteration counter toward the budget.
func (c *Controller) agenticSearch(ctx context.Context, question string, log *zap.Logger) (schemas.Decision, error) {
	state := newLoopState()

	for {
		log.Info("Agentic retrieval iteration",
			zap.Int("iteration", state.iteration),
			zap.Int("evidence_docs", len(state.evidence)),
			zap.String("question", truncate(question, 50)),
		)

		prompt := BuildPrompt(PromptInputs{
			Question:      question,
			IssuedQueries: state.issuedQueries,
			Evidence:      state.evidence,
			History:       state.history,
			Iteration:     state.iteration,
			MaxIterations: c.cfg.MaxIterations,
		})

		raw, err := c.generate(ctx, prompt)
		if err != nil {
			// External-failure boundary: not retried here, surfaced as the
			// caller's apologetic fallback for this question only.
			return schemas.Decision{}, err
		}

		decision := ParseDecision(raw)
		if decision.Action == schemas.DecisionMalformed {
			// Terminate immediately with the raw text; never re-ask the model
			// to fix its own formatting.
			log.Warn("Model response did not parse as a decision", zap.String("raw", truncate(raw, 200)))
			return decision, nil
		}

		state.history = append(state.history, decision)
		log.Info("Agent decision", zap.String("action", string(decision.Action)))

		if decision.IsTerminal() {
			return decision, nil
		}

		state.recordQueries(decision.Keywords)
		docs := c.runSearches(ctx, decision.Keywords, log)
		state.evidence = append(state.evidence, docs...)

		state.iteration++
		if state.iteration >= c.cfg.MaxIterations {
			// Budget exhausted mid-search: terminate with the dangling SEARCH
			// decision rather than spending one more model call to convert it
			// into an answer.
			log.Info("Iteration budget exhausted", zap.Int("iterations", state.iteration))
			return decision, nil
		}
	}
}

// generate performs a single model invocation bounded by the decision timeout.
func (c *Controller) generate(ctx context.Context, prompt string) (string, error) {
	if c.cfg.DecisionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.DecisionTimeout)
		defer cancel()
	}

	return c.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Tier:         schemas.TierPowerful,
		Options:      schemas.GenerationOptions{ForceJSONFormat: true, Temperature: 0.2},
	})
}

// runSearches issues one index search per requested keyword, in the order
// given and including duplicates. The searches are independent and read-only,
// so they run concurrently; results are merged back in keyword order, which
// keeps the accumulated evidence identical to a sequential run. A failed
// search counts as zero results for that keyword: the loop continues.
func (c *Controller) runSearches(ctx context.Context, keywords []string, log *zap.Logger) []schemas.Document {
	results := make([][]schemas.Document, len(keywords))

	g, gctx := errgroup.WithContext(ctx)
	for i, kw := range keywords {
		i, kw := i, kw
		g.Go(func() error {
			docs, err := c.searcher.Search(gctx, kw, c.cfg.SearchResults)
			if err != nil {
				log.Warn("Evidence search failed; treating as zero results",
					zap.String("keyword", kw), zap.Error(err))
				return nil
			}
			results[i] = docs
			return nil
		})
	}
	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()

	var merged []schemas.Document
	for _, docs := range results {
		merged = append(merged, docs...)
	}
	return merged
}

// answerFromDecision extracts the user-facing answer with the fixed fallback
// chain, so an absent answer field can never surface as an empty reply.
func answerFromDecision(d schemas.Decision) string {
	switch d.Action {
	case schemas.DecisionAnswerContext:
		if d.Answer != "" {
			return d.Answer
		}
		return fallbackContextAnswer
	case schemas.DecisionAnswer:
		if d.Answer != "" {
			return d.Answer
		}
		return fallbackKnowledgeAnswer
	case schemas.DecisionMalformed:
		if raw := strings.TrimSpace(d.Raw); raw != "" {
			return raw
		}
		return fallbackFormatAnswer
	default:
		if d.Answer != "" {
			return d.Answer
		}
		return fallbackFormatAnswer
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
