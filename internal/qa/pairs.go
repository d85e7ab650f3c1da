package qa

import (
	"regexp"
	"strings"
)

// Pair is one extracted question/answer unit destined to become a flashcard.
// Both sides are trimmed. Duplicate pairs are legal and kept in match order.
type Pair struct {
	Front string
	Back  string
}

// The markers below and the card format requested in prompt.go are two
// halves of one contract: a model instructed to answer in a different shape
// makes ExtractPairs return fewer or zero pairs with no diagnostic. Change
// them together and keep the shared fixtures in pairs_test.go passing.
var (
	questionMarker = regexp.MustCompile(`\*{0,2}Q:`)
	answerMarker   = regexp.MustCompile(`\*{0,2}A:`)
	// A card ends where the next numbered item or question marker begins.
	// Digits followed by a period inside an answer end the card early; that
	// quirk is part of the format contract.
	cardEnd = regexp.MustCompile(`\d+\.|Q:`)
)

// ExtractPairs scans free-form model output for "Q: … A: …" cards, optionally
// numbered ("1.") and wrapped in emphasis characters, and returns them in
// match order. Marker-free or otherwise malformed input yields an empty
// slice, never an error.
func ExtractPairs(raw string) []Pair {
	var pairs []Pair
	rest := raw
	for {
		q := questionMarker.FindStringIndex(rest)
		if q == nil {
			break
		}
		rest = rest[q[1]:]
		a := answerMarker.FindStringIndex(rest)
		if a == nil {
			break
		}
		front := clean(rest[:a[0]])
		rest = rest[a[1]:]
		back := rest
		if end := cardEnd.FindStringIndex(rest); end != nil {
			back = rest[:end[0]]
			rest = rest[end[0]:]
		} else {
			rest = ""
		}
		pairs = append(pairs, Pair{Front: front, Back: clean(back)})
	}
	return pairs
}

// clean trims whitespace and emphasis characters from both ends of a capture.
func clean(s string) string {
	return strings.Trim(s, "* \t\r\n")
}
