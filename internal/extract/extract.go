package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/text/unicode/norm"
)

// Filter controls which document nodes contribute text fragments.
//
// IncludeTags selects candidate elements by tag name; an empty include set
// makes every element in the tree a candidate. A candidate is dropped when it
// or any of its ancestors matches one of the exclusion rules: tag name listed
// in ExcludeTags, id attribute containing an ExcludeIDs entry, or class
// attribute containing an ExcludeClasses entry. Id and class matching is
// substring matching against the raw attribute value, not token matching —
// real pages carry minified or hashed names like "ad-slot-x3k" that exact
// matching would miss.
type Filter struct {
	IncludeTags    []string
	ExcludeTags    []string
	ExcludeIDs     []string
	ExcludeClasses []string
}

// Fragments returns the normalized text of every candidate element of the
// markup, in document order. Each surviving candidate contributes its full
// descendant text with whitespace runs collapsed to single spaces and the
// ends trimmed; empty results are dropped. Because candidates nest, the same
// visible text can appear once per enclosing candidate — that duplication is
// kept as-is; callers that want leaf-level text should narrow IncludeTags.
//
// A parse or selector failure returns an empty sequence together with the
// cause. Callers that only care about "nothing usable" may ignore the error;
// it exists so "found nothing" and "input was broken" can be told apart.
func Fragments(markup string, f Filter) ([]string, error) {
	include, err := cascadia.Compile(f.includeSelector())
	if err != nil {
		return nil, fmt.Errorf("include selector: %w", err)
	}
	var exclude cascadia.Selector
	if sel := f.excludeSelector(); sel != "" {
		exclude, err = cascadia.Compile(sel)
		if err != nil {
			return nil, fmt.Errorf("exclude selector: %w", err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	var out []string
	doc.FindMatcher(include).Each(func(_ int, s *goquery.Selection) {
		// Closest tests the element itself before walking up, which is the
		// ancestor-or-self rule: anything nested under an excluded element
		// is excluded too.
		if exclude != nil && s.ClosestMatcher(exclude).Length() > 0 {
			return
		}
		if t := normalizeText(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out, nil
}

func (f Filter) includeSelector() string {
	tags := cleanNames(f.IncludeTags)
	if len(tags) == 0 {
		return "*"
	}
	return strings.Join(tags, ", ")
}

func (f Filter) excludeSelector() string {
	parts := cleanNames(f.ExcludeTags)
	for _, id := range f.ExcludeIDs {
		if s := strings.TrimSpace(id); s != "" {
			parts = append(parts, attrContains("id", s))
		}
	}
	for _, class := range f.ExcludeClasses {
		if s := strings.TrimSpace(class); s != "" {
			parts = append(parts, attrContains("class", s))
		}
	}
	return strings.Join(parts, ", ")
}

// attrContains builds a substring attribute selector like [id*="ad"].
func attrContains(attr, value string) string {
	v := strings.ReplaceAll(value, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `[` + attr + `*="` + v + `"]`
}

func cleanNames(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.ToLower(strings.TrimSpace(s)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeText collapses whitespace runs (spaces, tabs, newlines, NBSP) to
// single spaces, trims the ends, and composes the result to NFC so fragments
// scraped from differently encoded pages compare equal.
func normalizeText(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return norm.NFC.String(strings.Join(fields, " "))
}
