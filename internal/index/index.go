// Package index implements the evidence store: an appendable, in-memory
// lexical index over the corpus. Scoring is field-weighted TF-IDF; ranking is
// deterministic for a fixed corpus and query.
package index

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zhibeky/quran-ai/api/schemas"
)

// Text fields scored by the index. Keyword/provenance fields travel with the
// document but do not participate in scoring.
const (
	FieldQuestion = "question"
	FieldText     = "text"
	FieldSection  = "section"
	FieldTafsir   = "tafsir_text"
)

var textFields = []string{FieldQuestion, FieldText, FieldSection, FieldTafsir}

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// posting records how often a term occurs in one document's field.
type posting struct {
	doc int
	tf  int
}

// fieldStats holds the inverted structures for a single text field.
type fieldStats struct {
	postings map[string][]posting // term -> postings, in append order
	df       map[string]int       // term -> number of documents containing it
	lengths  []int                // token count per document
}

func newFieldStats() *fieldStats {
	return &fieldStats{
		postings: make(map[string][]posting),
		df:       make(map[string]int),
	}
}

// Index is an appendable lexical search index. Append and Fit take the write
// lock; Search is safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	log    *zap.Logger
	boosts map[string]float64
	docs   []schemas.Document
	fields map[string]*fieldStats
	stop   map[string]struct{}
}

// New creates an empty index. Boost weights default to 1.0 for any text field
// not present in boosts.
func New(boosts map[string]float64, logger *zap.Logger) *Index {
	idx := &Index{
		log:    logger.Named("index"),
		boosts: make(map[string]float64, len(boosts)),
		fields: make(map[string]*fieldStats, len(textFields)),
		stop:   defaultStopwords(),
	}
	for f, b := range boosts {
		idx.boosts[f] = b
	}
	for _, f := range textFields {
		idx.fields[f] = newFieldStats()
	}
	return idx
}

// Fit replaces the index contents with the given documents.
func (idx *Index) Fit(docs []schemas.Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs = idx.docs[:0]
	for _, f := range textFields {
		idx.fields[f] = newFieldStats()
	}
	for _, d := range docs {
		idx.append(d)
	}
	idx.log.Info("Index fitted", zap.Int("documents", len(idx.docs)))
}

// Append adds a single document to the index.
func (idx *Index) Append(doc schemas.Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.append(doc)
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

func (idx *Index) append(doc schemas.Document) {
	id := len(idx.docs)
	idx.docs = append(idx.docs, doc)

	for _, f := range textFields {
		stats := idx.fields[f]
		tokens := idx.tokenize(fieldText(doc, f))
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		for term, tf := range counts {
			stats.postings[term] = append(stats.postings[term], posting{doc: id, tf: tf})
			stats.df[term]++
		}
		stats.lengths = append(stats.lengths, len(tokens))
	}
}

// Search returns up to limit documents ranked by field-weighted TF-IDF
// relevance to the query. An unmatched query yields an empty slice, never an
// error; the only error path is context cancellation.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]schemas.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	terms := idx.tokenize(query)
	if len(terms) == 0 || len(idx.docs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	n := float64(len(idx.docs))
	scores := make(map[int]float64)

	for _, f := range textFields {
		stats := idx.fields[f]
		boost := idx.boost(f)
		for _, term := range terms {
			plist, ok := stats.postings[term]
			if !ok {
				continue
			}
			// Smoothed IDF, as in a standard TF-IDF vectorizer.
			idf := math.Log((1+n)/(1+float64(stats.df[term]))) + 1.0
			for _, p := range plist {
				fieldLen := stats.lengths[p.doc]
				if fieldLen == 0 {
					continue
				}
				tf := float64(p.tf) / float64(fieldLen)
				scores[p.doc] += boost * tf * idf
			}
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	ranked := make([]int, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}
	// Deterministic order: score descending, insertion order as tiebreak.
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if limit > len(ranked) {
		limit = len(ranked)
	}

	out := make([]schemas.Document, 0, limit)
	for _, id := range ranked[:limit] {
		out = append(out, idx.docs[id])
	}
	return out, nil
}

func (idx *Index) boost(field string) float64 {
	if b, ok := idx.boosts[field]; ok {
		return b
	}
	return 1.0
}

func (idx *Index) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, isStop := idx.stop[tok]; isStop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func fieldText(d schemas.Document, field string) string {
	switch field {
	case FieldQuestion:
		return d.Question
	case FieldText:
		return d.Text
	case FieldSection:
		return d.Section
	case FieldTafsir:
		return d.TafsirText
	default:
		return ""
	}
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "he", "in", "is", "it", "its", "of", "on", "or", "that",
		"the", "to", "was", "were", "will", "with",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
