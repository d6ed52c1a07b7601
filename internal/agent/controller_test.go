package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhibeky/quran-ai/api/schemas"
	"github.com/zhibeky/quran-ai/internal/config"
)

// scriptedLLM returns canned responses in order and records every prompt it
// received.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (s *scriptedLLM) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.UserPrompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.prompts) > len(s.responses) {
		return "", fmt.Errorf("unexpected call %d", len(s.prompts))
	}
	return s.responses[len(s.prompts)-1], nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// fakeSearcher serves canned documents per query and records every query
// issued, including duplicates.
type fakeSearcher struct {
	mu      sync.Mutex
	docs    map[string][]schemas.Document
	failOn  map[string]error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]schemas.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err, ok := f.failOn[query]; ok {
		return nil, err
	}
	return f.docs[query], nil
}

func (f *fakeSearcher) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func newTestController(t *testing.T, llm schemas.LLMClient, searcher schemas.Searcher, maxIterations int) *Controller {
	t.Helper()
	return NewController(searcher, llm, config.AgentConfig{
		MaxIterations: maxIterations,
		SearchResults: 5,
	}, zaptest.NewLogger(t))
}

func searchResponse(keywords ...string) string {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = fmt.Sprintf("%q", kw)
	}
	return fmt.Sprintf(`{"action": "SEARCH", "reasoning": "r", "keywords": [%s]}`, strings.Join(quoted, ", "))
}

func TestAnswerQuestion_ImmediateAnswer(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"action": "ANSWER", "answer": "Patience is a core virtue.", "source": "OWN_KNOWLEDGE"}`,
	}}
	searcher := &fakeSearcher{}
	c := newTestController(t, llm, searcher, 1)

	got := c.AnswerQuestion(context.Background(), "What about patience?")

	assert.Equal(t, "Patience is a core virtue.", got)
	assert.Equal(t, 1, llm.calls())
	assert.Equal(t, 0, searcher.searchCount())
}

func TestAnswerQuestion_SearchThenAnswerFromContext(t *testing.T) {
	doc := schemas.Document{SurahName: "Al-Baqarah", Reference: "2:153", Text: "Seek help through patience and prayer."}
	llm := &scriptedLLM{responses: []string{
		searchResponse("patience"),
		`{"action": "ANSWER_CONTEXT", "answer": "See Surah Al-Baqarah 2:153.", "source": "CONTEXT"}`,
	}}
	searcher := &fakeSearcher{docs: map[string][]schemas.Document{"patience": {doc}}}
	c := newTestController(t, llm, searcher, 3)

	got := c.AnswerQuestion(context.Background(), "What does the Quran say about patience?")

	assert.Equal(t, "See Surah Al-Baqarah 2:153.", got)
	assert.Equal(t, 2, llm.calls())
	assert.Equal(t, []string{"patience"}, searcher.queries)

	// The second prompt must replay the accumulated state.
	second := llm.prompts[1]
	assert.Contains(t, second, "reference: 2:153")
	assert.Contains(t, second, "<SEARCH_QUERIES>\npatience\n</SEARCH_QUERIES>")
	assert.Contains(t, second, `"action":"SEARCH"`)
}

func TestAnswerQuestion_BudgetExhaustedOnDanglingSearch(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		searchResponse("patience"),
		searchResponse("sabr reward"),
	}}
	searcher := &fakeSearcher{}
	c := newTestController(t, llm, searcher, 2)

	got := c.AnswerQuestion(context.Background(), "q")

	// The final SEARCH decision carries no answer, so the generic format
	// fallback is surfaced without spending a third model call.
	assert.Equal(t, fallbackFormatAnswer, got)
	assert.Equal(t, 2, llm.calls())
	assert.Equal(t, []string{"patience", "sabr reward"}, searcher.queries)
}

func TestAnswerQuestion_MalformedResponseReturnsRawText(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		"Patience (sabr) is mentioned over ninety times in the Quran.",
	}}
	searcher := &fakeSearcher{}
	c := newTestController(t, llm, searcher, 3)

	got := c.AnswerQuestion(context.Background(), "q")

	assert.Equal(t, "Patience (sabr) is mentioned over ninety times in the Quran.", got)
	assert.Equal(t, 1, llm.calls(), "malformed output must not trigger extra model calls")
	assert.Equal(t, 0, searcher.searchCount())
}

func TestAnswerQuestion_MalformedEmptyResponse(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"   "}}
	c := newTestController(t, llm, &fakeSearcher{}, 3)

	got := c.AnswerQuestion(context.Background(), "q")

	assert.Equal(t, fallbackFormatAnswer, got)
}

func TestAnswerQuestion_LLMErrorReturnsApology(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("upstream unavailable")}
	c := newTestController(t, llm, &fakeSearcher{}, 3)

	got := c.AnswerQuestion(context.Background(), "q")

	assert.Equal(t, fallbackErrorAnswer, got)
}

func TestAnswerQuestion_EmptyAnswerFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     string
	}{
		{name: "context answer missing", response: `{"action": "ANSWER_CONTEXT", "source": "CONTEXT"}`, want: fallbackContextAnswer},
		{name: "knowledge answer missing", response: `{"action": "ANSWER", "source": "OWN_KNOWLEDGE"}`, want: fallbackKnowledgeAnswer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &scriptedLLM{responses: []string{tc.response}}
			c := newTestController(t, llm, &fakeSearcher{}, 3)

			assert.Equal(t, tc.want, c.AnswerQuestion(context.Background(), "q"))
		})
	}
}

func TestAnswerQuestion_SearchFailureCountsAsZeroResults(t *testing.T) {
	doc := schemas.Document{Reference: "103:3", Text: "patience"}
	llm := &scriptedLLM{responses: []string{
		searchResponse("broken", "patience"),
		`{"action": "ANSWER_CONTEXT", "answer": "ok", "source": "CONTEXT"}`,
	}}
	searcher := &fakeSearcher{
		docs:   map[string][]schemas.Document{"patience": {doc}},
		failOn: map[string]error{"broken": errors.New("index offline")},
	}
	c := newTestController(t, llm, searcher, 3)

	got := c.AnswerQuestion(context.Background(), "q")

	assert.Equal(t, "ok", got)
	// The surviving keyword's evidence still reaches the next prompt.
	assert.Contains(t, llm.prompts[1], "reference: 103:3")
}

func TestAnswerQuestion_RepeatedKeywordsSearchedAgainButRecordedOnce(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		searchResponse("Patience", "patience"),
		searchResponse("  PATIENCE  "),
		`{"action": "ANSWER", "answer": "done", "source": "OWN_KNOWLEDGE"}`,
	}}
	searcher := &fakeSearcher{}
	c := newTestController(t, llm, searcher, 5)

	got := c.AnswerQuestion(context.Background(), "q")

	assert.Equal(t, "done", got)
	// Every requested keyword is searched, duplicates included.
	assert.Equal(t, 3, searcher.searchCount())
	// But the issued-query bookkeeping holds a single normalized entry.
	assert.Contains(t, llm.prompts[2], "<SEARCH_QUERIES>\npatience\n</SEARCH_QUERIES>")
}

func TestAnswerQuestion_EvidenceAccumulatesAcrossIterations(t *testing.T) {
	docA := schemas.Document{Reference: "2:153", Text: "a"}
	docB := schemas.Document{Reference: "103:3", Text: "b"}
	llm := &scriptedLLM{responses: []string{
		searchResponse("first"),
		searchResponse("second"),
		`{"action": "ANSWER_CONTEXT", "answer": "done", "source": "CONTEXT"}`,
	}}
	searcher := &fakeSearcher{docs: map[string][]schemas.Document{
		"first":  {docA},
		"second": {docB},
	}}
	c := newTestController(t, llm, searcher, 5)

	c.AnswerQuestion(context.Background(), "q")

	require.Equal(t, 3, llm.calls())
	final := llm.prompts[2]
	posA := strings.Index(final, "reference: 2:153")
	posB := strings.Index(final, "reference: 103:3")
	require.True(t, posA >= 0 && posB >= 0, "both iterations' evidence must be present")
	assert.Less(t, posA, posB, "evidence keeps retrieval order")
}

func TestAnswerQuestion_NoopSearchStillConsumesIteration(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`{"action": "SEARCH", "reasoning": "no keywords supplied"}`,
	}}
	searcher := &fakeSearcher{}
	c := newTestController(t, llm, searcher, 1)

	got := c.AnswerQuestion(context.Background(), "q")

	assert.Equal(t, fallbackFormatAnswer, got)
	assert.Equal(t, 1, llm.calls())
	assert.Equal(t, 0, searcher.searchCount())
}

func TestAnswerQuestion_KeywordOrderPreservedInEvidence(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		searchResponse("z-last", "a-first"),
		`{"action": "ANSWER_CONTEXT", "answer": "done", "source": "CONTEXT"}`,
	}}
	searcher := &fakeSearcher{docs: map[string][]schemas.Document{
		"z-last":  {{Reference: "1:1", Text: "z"}},
		"a-first": {{Reference: "2:2", Text: "a"}},
	}}
	c := newTestController(t, llm, searcher, 3)

	c.AnswerQuestion(context.Background(), "q")

	require.Equal(t, 2, llm.calls())
	final := llm.prompts[1]
	posZ := strings.Index(final, "reference: 1:1")
	posA := strings.Index(final, "reference: 2:2")
	require.True(t, posZ >= 0 && posA >= 0)
	assert.Less(t, posZ, posA, "merged evidence follows keyword order, not completion order")
}
