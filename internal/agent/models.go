// Package agent implements the agentic retrieval loop: a per-question state
// machine that alternates between querying the lexical index and asking the
// language model whether to search further or commit to an answer.
package agent

import (
	"strings"

	"github.com/zhibeky/quran-ai/api/schemas"
)

// Fallback strings returned to the user when a terminal decision is missing
// its payload or the loop hits an external-failure boundary. The caller never
// observes an absent answer.
const (
	fallbackContextAnswer   = "I found information but could not format it properly."
	fallbackKnowledgeAnswer = "I could not find specific information in the Quran about this topic."
	fallbackFormatAnswer    = "I processed your question but encountered an issue with the response format."
	fallbackErrorAnswer     = "I apologize, but I encountered an error while processing your question. Please try again."
)

// loopState is the mutable state of one question's reasoning loop. It is
// owned exclusively by the single in-flight call processing that question and
// discarded once a terminal decision is produced.
type loopState struct {
	iteration int

	// issuedQueries holds every keyword ever searched, deduplicated under
	// normalization, in first-seen order. It never shrinks.
	issuedQueries []string
	issuedSet     map[string]struct{}

	// evidence is append-only; retrieved documents are never removed or
	// deduplicated.
	evidence []schemas.Document

	// history records one decision per completed iteration so the model can
	// see what it already tried.
	history []schemas.Decision
}

func newLoopState() *loopState {
	return &loopState{issuedSet: make(map[string]struct{})}
}

// recordQueries merges keywords into the issued-query bookkeeping. A keyword
// already searched in a prior iteration is not re-added, but the caller still
// issues the search itself; deduplication here only feeds the next prompt.
func (s *loopState) recordQueries(keywords []string) {
	for _, kw := range keywords {
		norm := normalizeQuery(kw)
		if norm == "" {
			continue
		}
		if _, seen := s.issuedSet[norm]; seen {
			continue
		}
		s.issuedSet[norm] = struct{}{}
		s.issuedQueries = append(s.issuedQueries, norm)
	}
}

// normalizeQuery lowercases and collapses whitespace so that trivially
// restated keywords count as the same issued query.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
