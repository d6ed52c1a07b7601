package agent

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/zhibeky/quran-ai/api/schemas"
)

// systemPrompt carries the fixed behavioral instructions: role, sourcing and
// citation rules, the prohibition on repeating prior searches, and the three
// output templates anchoring the expected structured-output shape. The
// templates are instructional text only; the decision parser validates
// independently.
const systemPrompt = `You are an Imam and a teacher of the QURAN.

You're given a QUESTION from a person that you need to answer with the provided CONTEXT. If there is no CONTEXT you can use your own knowledge.
At the beginning the CONTEXT is empty.

The CONTEXT is built from the QURAN and documents of TAFSIR (explanatory commentary).
SEARCH_QUERIES contains the queries that were used to retrieve documents from the QURAN and add them to the CONTEXT.
PREVIOUS_ACTIONS contains the actions you already performed.

When answering:
- Use clear, respectful, and simple language.
- Quote directly from the Qur'an or tafsir when relevant.
- Always include the surah and ayah reference (e.g., Surah Al-Fatiha 1:5).
- If the Qur'an text alone does not fully answer the QUESTION and you use tafsir to clarify, explicitly label it as 'Tafsir clarification'.

You can perform the following actions:

- Search in the QURAN and TAFSIR database to get more data for the CONTEXT
- Answer the question using the CONTEXT
- Answer the question using your own knowledge

For the SEARCH action, build search requests based on the CONTEXT and the QUESTION.
Carefully analyze the CONTEXT and generate the requests to deeply explore the topic.

Don't use search queries used at the previous iterations.

Don't repeat previously performed actions.

Output templates:

If you want to perform search, use this template:

{
"action": "SEARCH",
"reasoning": "<add your reasoning here>",
"keywords": ["search query 1", "search query 2", ...]
}

If you can answer the QUESTION using CONTEXT, use this template:

{
"action": "ANSWER_CONTEXT",
"answer": "<your answer>",
"source": "CONTEXT"
}

If the context doesn't contain the answer, use your own knowledge to answer the question:

{
"action": "ANSWER",
"answer": "<your answer>",
"source": "OWN_KNOWLEDGE"
}`

// PromptInputs enumerates everything the prompt depends on, so prompt
// assembly is independently testable without invoking any external service.
type PromptInputs struct {
	Question      string
	IssuedQueries []string
	Evidence      []schemas.Document
	History       []schemas.Decision
	Iteration     int
	MaxIterations int
}

// BuildPrompt assembles the user-facing part of the prompt from the current
// loop state. Pure function: same inputs, same prompt.
func BuildPrompt(in PromptInputs) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Don't perform more than %d iterations for a given question.\n", in.MaxIterations)
	fmt.Fprintf(&b, "The current iteration number: %d.\n", in.Iteration)
	if in.Iteration >= in.MaxIterations-1 {
		b.WriteString("This is the final allowed iteration: do NOT search again. Give the best possible answer with the provided information.\n")
	} else {
		b.WriteString("If we exceed the allowed number of iterations, give the best possible answer with the provided information.\n")
	}

	fmt.Fprintf(&b, "\n<QUESTION>\n%s\n</QUESTION>\n", in.Question)
	fmt.Fprintf(&b, "\n<SEARCH_QUERIES>\n%s\n</SEARCH_QUERIES>\n", strings.Join(in.IssuedQueries, "\n"))
	fmt.Fprintf(&b, "\n<CONTEXT>\n%s\n</CONTEXT>\n", BuildContext(in.Evidence))
	fmt.Fprintf(&b, "\n<PREVIOUS_ACTIONS>\n%s\n</PREVIOUS_ACTIONS>\n", renderHistory(in.History))

	return b.String()
}

// renderHistory serializes each prior decision on its own line so the model
// can avoid repeating itself.
func renderHistory(history []schemas.Decision) string {
	lines := make([]string, 0, len(history))
	for _, d := range history {
		line, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(d)
		if err != nil {
			// Decisions are plain data; marshaling cannot realistically fail,
			// but the prompt must never be lost to it.
			line = fmt.Sprintf(`{"action":%q}`, d.Action)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
