package agent

import (
	"fmt"
	"strings"

	"github.com/zhibeky/quran-ai/api/schemas"
)

// BuildContext renders accumulated evidence into the textual block embedded
// in the next prompt. It is a pure function of the input order: documents
// appear exactly as they were appended, with no deduplication, truncation or
// length cap. Empty evidence yields an empty string; the first iteration
// always starts that way.
func BuildContext(evidence []schemas.Document) string {
	var b strings.Builder
	for _, doc := range evidence {
		fmt.Fprintf(&b, "surah_name: %s\n", doc.SurahName)
		fmt.Fprintf(&b, "reference: %s\n", doc.Reference)
		fmt.Fprintf(&b, "quran_text: %s\n", doc.Text)
		fmt.Fprintf(&b, "tafsir: %s\n\n", doc.TafsirText)
	}
	return b.String()
}
