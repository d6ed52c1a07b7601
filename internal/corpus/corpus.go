// Package corpus loads the bundled Quran-with-tafsir dataset. Loading is a
// one-time bulk operation performed at startup, before any question is served.
package corpus

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/zhibeky/quran-ai/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Load reads the corpus file at path and returns its documents. It fails fast
// on unreadable or structurally invalid data: a bot without a corpus cannot
// answer anything, so there is no degraded mode here.
func Load(path string, logger *zap.Logger) ([]schemas.Document, error) {
	log := logger.Named("corpus")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file %q: %w", path, err)
	}

	var docs []schemas.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode corpus file %q: %w", path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus file %q contains no documents", path)
	}

	skipped := 0
	valid := docs[:0]
	for _, d := range docs {
		// A document with no ayah text and no tafsir has nothing to retrieve.
		if d.Text == "" && d.TafsirText == "" {
			skipped++
			continue
		}
		valid = append(valid, d)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("corpus file %q contains no usable documents", path)
	}

	log.Info("Corpus loaded",
		zap.String("path", path),
		zap.Int("documents", len(valid)),
		zap.Int("skipped", skipped),
	)
	return valid, nil
}
