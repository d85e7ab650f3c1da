// Package budget sizes page text against a chat model's context window so
// generation requests never overrun it.
package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// EstimateTokensFromChars converts a character count into an estimated token
// count using a conservative heuristic (~4 chars per token in English). The
// result is always at least 1 when chars > 0.
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	// Keep conservative to avoid overruns. Use ceiling for safety.
	return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of a string.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(len(s))
}

// EstimatePromptTokens estimates the total tokens for a prompt composed of a
// system message, a user message, and zero or more page fragments.
func EstimatePromptTokens(system string, user string, fragments []string) int {
	total := 0
	total += EstimateTokens(system)
	total += EstimateTokens(user)
	for _, f := range fragments {
		total += EstimateTokens(f)
	}
	return total
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to a sensible default.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return 8192
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	// Heuristics based on common suffixes present in model names
	if strings.HasSuffix(name, "1m") {
		return 1_000_000
	}
	if strings.HasSuffix(name, "512k") {
		return 512_000
	}
	if strings.HasSuffix(name, "200k") {
		return 200_000
	}
	if strings.HasSuffix(name, "128k") {
		return 128_000
	}
	if strings.Contains(name, "-mini") {
		// Many "mini" models expose large contexts nowadays, assume 128k.
		return 128_000
	}
	// Default conservative context if unknown.
	return 8192
}

// RemainingContext computes the remaining input token budget given a model,
// a desired reservation for output generation, and the estimated prompt tokens.
// The result is never negative.
func RemainingContext(modelName string, reservedForOutput int, promptTokens int) int {
	maxCtx := ModelContextTokens(modelName)
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := maxCtx - reservedForOutput - promptTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FitsInContext reports whether the prompt can fit into the model's context
// window when reserving the specified number of output tokens.
func FitsInContext(modelName string, reservedForOutput int, promptTokens int) bool {
	return RemainingContext(modelName, reservedForOutput, promptTokens) > 0
}

// HeadroomTokens returns a conservative safety headroom to subtract from the
// model context so that prompt sizing avoids overruns due to tokenizer and
// message framing overheads. We use the larger of 5% of the model context or
// a fixed floor of 512 tokens.
func HeadroomTokens(modelName string) int {
	max := ModelContextTokens(modelName)
	dyn := int(math.Ceil(float64(max) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// RemainingContextWithHeadroom computes remaining tokens after accounting for
// output reservation and a conservative headroom for the given model.
func RemainingContextWithHeadroom(modelName string, reservedForOutput int, promptTokens int) int {
	headroom := HeadroomTokens(modelName)
	return RemainingContext(modelName, reservedForOutput+headroom, promptTokens)
}

// PromptCharBudget converts the model's remaining input window into a page
// text character allowance. overheadChars covers the instruction messages
// wrapped around the text.
func PromptCharBudget(modelName string, reservedForOutput int, overheadChars int) int {
	tokens := RemainingContextWithHeadroom(modelName, reservedForOutput, EstimateTokensFromChars(overheadChars))
	return tokens * 4
}

// CapFragments keeps leading fragments whole until the character budget is
// spent, so truncation never cuts a fragment mid-sentence. The first fragment
// is clipped rather than dropped when it alone exceeds the budget. The second
// return reports whether anything was removed.
func CapFragments(fragments []string, maxChars int) ([]string, bool) {
	if len(fragments) == 0 {
		return fragments, false
	}
	if maxChars <= 0 {
		return nil, true
	}
	used := 0
	for i, f := range fragments {
		cost := len(f)
		if i > 0 {
			cost += 2 // blank-line join downstream
		}
		if used+cost > maxChars {
			if i == 0 {
				return []string{clipRunes(f, maxChars)}, true
			}
			return fragments[:i], true
		}
		used += cost
	}
	return fragments, false
}

// clipRunes cuts s to at most maxChars bytes without splitting a rune.
func clipRunes(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	b := s[:maxChars]
	for len(b) > 0 && !utf8.ValidString(b) {
		b = b[:len(b)-1]
	}
	return b
}

// knownModelMax contains rough context sizes for common model identifiers.
// These are best-effort and do not need to be exhaustive.
var knownModelMax = map[string]int{
	// OpenAI family (approximate)
	"gpt-4o":        128_000,
	"gpt-4o-mini":   128_000,
	"gpt-4-turbo":   128_000,
	"gpt-3.5-turbo": 16_384,

	// Llama family, hosted and Ollama-style identifiers
	"llama-3":   8_192,
	"llama3":    8_192,
	"llama-3.1": 128_000,
	"llama3.1":  128_000,

	// Common local backends (Ollama identifiers, approximate)
	"qwen2.5": 32_768,
	"mistral": 32_768,
	"phi3":    128_000,
	"gemma2":  8_192,
}
