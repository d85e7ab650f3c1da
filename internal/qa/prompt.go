package qa

import (
	"fmt"
	"strings"
)

// systemMessage pins the card format that ExtractPairs parses. The numbered
// "N. Q: … A: …" shape is the contract; see the marker note in pairs.go.
const systemMessage = "You write study flashcards. From the text the user provides, produce concise " +
	"question/answer flashcards covering its distinct facts, one fact per card. Number the cards and " +
	"format every card exactly as \"N. Q: <question> A: <answer>\" with question and answer on the same " +
	"card. Questions must be answerable from the text alone. Keep answers short. Output only the cards, " +
	"no preamble and no commentary."

// buildUserMessage assembles the request: desired card count, the optional
// user-supplied context hint, then the page text.
func buildUserMessage(contextHint string, count int, text string) string {
	var sb strings.Builder
	if count > 0 {
		fmt.Fprintf(&sb, "Write %d flashcards for the following text.", count)
	} else {
		sb.WriteString("Write flashcards for the following text.")
	}
	if hint := strings.TrimSpace(contextHint); hint != "" {
		sb.WriteString("\nContext: ")
		sb.WriteString(hint)
	}
	sb.WriteString("\n\nText:\n")
	sb.WriteString(text)
	return sb.String()
}

// PromptOverhead is the character cost of the instruction messages wrapped
// around the page text. Callers size the text itself against the model
// context after subtracting this.
func PromptOverhead(contextHint string, count int) int {
	return len(systemMessage) + len(buildUserMessage(contextHint, count, ""))
}
