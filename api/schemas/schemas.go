package schemas

// Document is a single retrievable unit of evidence: one ayah together with
// its tafsir (explanatory commentary). Documents are owned by the search
// index; the reasoning loop only ever holds read-only copies.
type Document struct {
	SurahNumber      int    `json:"surah_number"`
	SurahName        string `json:"surah_name"`
	SurahTranslation string `json:"surah_translation"`
	AyahNumber       int    `json:"ayah_number"`
	// Reference is the human-readable locator, e.g. "2:45".
	Reference string `json:"reference"`
	Language  string `json:"language"`
	// Text is the canonical ayah text.
	Text string `json:"text"`
	// TafsirText may be empty when no commentary exists for the ayah.
	TafsirText   string `json:"tafsir_text"`
	TafsirSource string `json:"tafsir_source"`

	// Question and Section are free-form classification fields used only by
	// the index's field boosting; the reasoning loop treats them as opaque.
	Question string `json:"question,omitempty"`
	Section  string `json:"section,omitempty"`
}

// DecisionType is the discriminator the reasoning model must emit in its
// structured output.
type DecisionType string

const (
	// DecisionSearch requests more evidence before answering.
	DecisionSearch DecisionType = "SEARCH"
	// DecisionAnswerContext answers from the accumulated evidence.
	DecisionAnswerContext DecisionType = "ANSWER_CONTEXT"
	// DecisionAnswer answers from the model's own knowledge.
	DecisionAnswer DecisionType = "ANSWER"
	// DecisionMalformed is produced locally when a model response cannot be
	// interpreted as any of the above. The model itself never emits it.
	DecisionMalformed DecisionType = "MALFORMED"
)

// Decision is one reasoning step's committed action. It is the typed form of
// the model's raw output; all fields are validated at the parse boundary and
// never accessed ad hoc downstream.
type Decision struct {
	Action    DecisionType `json:"action"`
	Reasoning string       `json:"reasoning,omitempty"`
	Keywords  []string     `json:"keywords,omitempty"`
	Answer    string       `json:"answer,omitempty"`
	Source    string       `json:"source,omitempty"`

	// Raw carries the unparsed model output for MALFORMED decisions so the
	// caller can still surface a best-effort answer.
	Raw string `json:"-"`
}

// IsTerminal reports whether the decision ends the reasoning loop.
func (d Decision) IsTerminal() bool {
	return d.Action != DecisionSearch
}
