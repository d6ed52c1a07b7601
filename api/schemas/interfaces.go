package schemas

import (
	"context"
	"time"
)

// ModelTier allows selecting a language model by capability preference rather
// than by concrete model name.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, potentially less capable model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable, potentially slower model.
)

// GenerationOptions provides the generation parameters the reasoning loop
// cares about. Everything else is provider configuration.
type GenerationOptions struct {
	Temperature     float32 `json:"temperature"`
	ForceJSONFormat bool    `json:"force_json_format"`
}

// GenerationRequest encapsulates a complete request to the language model.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Tier         ModelTier         `json:"tier"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient is the narrow contract the reasoning loop consumes: a single
// prompt in, a single block of text out. Implementations own retries, rate
// limiting and provider details.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// Searcher is the evidence-store contract: a query string in, a bounded
// ranked list of documents out. An unmatched query yields an empty slice,
// not an error.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Document, error)
}

// UserStats summarizes one tracked user.
type UserStats struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	FirstSeen    time.Time
	LastSeen     time.Time
	MessageCount int
}

// UserTracker records who is talking to the bot. It is a side accounting
// concern: implementations must degrade to no-ops rather than block or fail
// question answering.
type UserTracker interface {
	// TrackUser upserts the user's profile and refreshes last_seen.
	TrackUser(ctx context.Context, id int64, username, firstName, lastName string) error
	// IncrementMessageCount bumps the user's message counter.
	IncrementMessageCount(ctx context.Context, id int64) error
	// GetUserStats returns the stored stats for one user.
	GetUserStats(ctx context.Context, id int64) (UserStats, error)
	// CountUsers returns the total number of tracked users.
	CountUsers(ctx context.Context) (int, error)
}
