package agent

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/zhibeky/quran-ai/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonBlockRegex robustly extracts a JSON object from a markdown code block.
var jsonBlockRegex = regexp.MustCompile(fmt.Sprintf("(?s)%s(?:json)?\\s*(.*?)\\s*%s", "```", "```"))

// rawDecision mirrors the model's expected output schema. Fields are read
// defensively; only the discriminator is required.
type rawDecision struct {
	Action    string   `json:"action"`
	Reasoning string   `json:"reasoning"`
	Keywords  []string `json:"keywords"`
	Answer    string   `json:"answer"`
	Source    string   `json:"source"`
}

// ParseDecision interprets the model's raw response as a typed Decision. It
// is the single point that converts an untrusted external text blob into a
// typed value, and it never fails: output that cannot be interpreted as a
// recognized action becomes a MALFORMED decision carrying the raw text.
func ParseDecision(raw string) schemas.Decision {
	trimmed := strings.TrimSpace(raw)

	jsonText := extractJSON(trimmed)
	if jsonText == "" {
		return malformed(trimmed)
	}

	var rd rawDecision
	if err := json.UnmarshalFromString(jsonText, &rd); err != nil {
		return malformed(trimmed)
	}
	if rd.Action == "" {
		// Structurally valid JSON without the discriminator is still not a
		// recognized action.
		return malformed(trimmed)
	}

	action := schemas.DecisionType(strings.ToUpper(strings.TrimSpace(rd.Action)))
	if action == schemas.DecisionSearch {
		return schemas.Decision{
			Action:    schemas.DecisionSearch,
			Reasoning: rd.Reasoning,
			// Missing keywords default to an empty sequence: the controller
			// treats that as a no-op search-and-continue, and the iteration
			// counter still advances, so this cannot loop forever.
			Keywords: rd.Keywords,
			Raw:      trimmed,
		}
	}

	// Anything that is not SEARCH terminates the loop. A missing answer is
	// replaced by the caller's fixed fallback chain, never surfaced empty.
	return schemas.Decision{
		Action: action,
		Answer: rd.Answer,
		Source: rd.Source,
		Raw:    trimmed,
	}
}

// extractJSON pulls a JSON object out of the response, handling markdown
// fences and surrounding prose.
func extractJSON(response string) string {
	if matches := jsonBlockRegex.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first != -1 && last != -1 && last > first {
		return response[first : last+1]
	}
	return ""
}

func malformed(raw string) schemas.Decision {
	return schemas.Decision{Action: schemas.DecisionMalformed, Raw: raw}
}
