package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ankigen/ankigen/internal/qa"
)

// reviewPairs walks the user through each candidate card. Commands: enter or
// y keeps, n skips, e edits both sides, a keeps this card and the rest, q
// drops this card and the rest. Input ending early behaves like q.
func reviewPairs(in io.Reader, out io.Writer, pairs []qa.Pair) ([]qa.Pair, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	kept := make([]qa.Pair, 0, len(pairs))
	for i := 0; i < len(pairs); i++ {
		p := pairs[i]
		fmt.Fprintf(out, "\nCard %d/%d\nQ: %s\nA: %s\n", i+1, len(pairs), p.Front, p.Back)
		fmt.Fprint(out, "Add to deck? [Y]es / [n]o / [e]dit / [a]ll / [q]uit: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return kept, err
			}
			return kept, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "y", "yes":
			kept = append(kept, p)
		case "n", "no", "s", "skip":
			continue
		case "e", "edit":
			edited, err := editPair(scanner, out, p)
			if err != nil {
				return kept, err
			}
			kept = append(kept, edited)
		case "a", "all":
			kept = append(kept, pairs[i:]...)
			return kept, nil
		case "q", "quit":
			return kept, nil
		default:
			// Unrecognized input repeats the same card.
			i--
		}
	}
	return kept, nil
}

// editPair prompts for replacement front and back text. An empty line keeps
// the current side.
func editPair(scanner *bufio.Scanner, out io.Writer, p qa.Pair) (qa.Pair, error) {
	fmt.Fprintf(out, "Front [%s]: ", p.Front)
	if scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			p.Front = s
		}
	} else if err := scanner.Err(); err != nil {
		return p, err
	}
	fmt.Fprintf(out, "Back [%s]: ", p.Back)
	if scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			p.Back = s
		}
	} else if err := scanner.Err(); err != nil {
		return p, err
	}
	return p, nil
}
