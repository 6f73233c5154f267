// Package rationale compares the free-text justifications an annotator gave
// in the two phases.
package rationale

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/kljensen/snowball/english"
)

// wordPattern matches words, keeping dotted forms such as "e.g" together.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+(?:\.?[\p{L}\p{N}_]+)*`)

// Stems tokenizes text, lower-cases every token and reduces it to its English
// stem. Stop words are kept. Tokens are returned in text order.
func Stems(text string) []string {
	words := wordPattern.FindAllString(text, -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, english.Stem(strings.ToLower(w), false))
	}
	return out
}

func stemSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, s := range Stems(text) {
		set[s] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ExclusiveOuterJoin returns the stems used in exactly one of the two texts,
// sorted.
func ExclusiveOuterJoin(a, b string) []string {
	sa, sb := stemSet(a), stemSet(b)
	out := make(map[string]bool)
	for s := range sa {
		if !sb[s] {
			out[s] = true
		}
	}
	for s := range sb {
		if !sa[s] {
			out[s] = true
		}
	}
	return sortedKeys(out)
}

// Intersection returns the stems both texts use, sorted.
func Intersection(a, b string) []string {
	sa, sb := stemSet(a), stemSet(b)
	out := make(map[string]bool)
	for s := range sa {
		if sb[s] {
			out[s] = true
		}
	}
	return sortedKeys(out)
}

// ContextOverlap returns the changed stems that also occur in the item's
// context text, sorted.
func ContextOverlap(change []string, context string) []string {
	ctx := stemSet(context)
	out := make(map[string]bool)
	for _, s := range change {
		if ctx[s] {
			out[s] = true
		}
	}
	return sortedKeys(out)
}

// JustificationChange adds column out holding, per row, the ", "-joined
// stems that appear in only one of col1 and col2. Missing cells count as
// empty text.
func JustificationChange(t *dataset.Table, col1, col2, out string) (*dataset.Table, error) {
	if err := t.Require(col1, col2); err != nil {
		return nil, fmt.Errorf("justification change: %w", err)
	}
	return t.Derive(out, func(r dataset.Row) dataset.Cell {
		return dataset.Text(strings.Join(ExclusiveOuterJoin(text(r[col1]), text(r[col2])), ", "))
	})
}

func text(c dataset.Cell) string {
	if c.IsMissing() {
		return ""
	}
	return c.Text()
}
