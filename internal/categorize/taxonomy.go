// Package categorize sorts items into disagreement categories from the label
// sets their annotators chose.
package categorize

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownCategory is returned for a category outside a taxonomy's order.
var ErrUnknownCategory = errors.New("unknown category")

// Taxonomy is a versioned set of disagreement categories and the rule that
// assigns them.
type Taxonomy struct {
	Name string
	// Order lists every category the rule can produce, in display order.
	Order []string
	// Colors is parallel to Order.
	Colors []string
	// rule maps size-ordered label groups to one category.
	rule func(groups []labelGroup, total int, group string) string
}

// Taxonomy names accepted by Lookup.
const (
	TargetsV1Name       = "targets-v1"
	OpinionsCountV0Name = "opinions-count-v0"
)

// TargetsV1 distinguishes whether the agreeing annotators saw a target.
var TargetsV1 = &Taxonomy{
	Name: TargetsV1Name,
	Order: []string{
		"all_not-targeting", "all_unclear", "all_targeting",
		"majority_not-targeting", "majority_unclear", "majority_targeting",
		"opinions_not-targeting", "opinions_unclear", "opinions_targeting",
		"no-agreement",
	},
	Colors: []string{
		"green", "green", "green",
		"greenyellow", "greenyellow", "greenyellow",
		"orange", "orange", "orange",
		"red",
	},
	rule: func(groups []labelGroup, total int, group string) string {
		if prefix, ok := consensus(groups, total); ok {
			return prefix + "_" + target(groups[0].set, group)
		}
		if groups[0].size >= 2 {
			return "opinions_" + opinions(groups, group)
		}
		return "no-agreement"
	},
}

// OpinionsCountV0 counts how many competing opinions have support.
var OpinionsCountV0 = &Taxonomy{
	Name: OpinionsCountV0Name,
	Order: []string{
		"all_not-targeting", "all_unclear", "all_targeting",
		"majority_not-targeting", "majority_unclear", "majority_targeting",
		"opinions_one", "opinions_two", "opinions_three",
		"none",
	},
	Colors: []string{
		"green", "green", "green",
		"greenyellow", "greenyellow", "greenyellow",
		"orange", "orange", "orange",
		"red",
	},
	rule: func(groups []labelGroup, total int, group string) string {
		if prefix, ok := consensus(groups, total); ok {
			return prefix + "_" + target(groups[0].set, group)
		}
		switch {
		case groups[0].size < 2:
			return "none"
		case len(groups) > 2 && groups[2].size >= 2:
			return "opinions_three"
		case len(groups) > 1 && groups[1].size >= 2:
			return "opinions_two"
		default:
			return "opinions_one"
		}
	},
}

// Lookup returns a taxonomy by name.
func Lookup(name string) (*Taxonomy, error) {
	switch name {
	case TargetsV1Name:
		return TargetsV1, nil
	case OpinionsCountV0Name:
		return OpinionsCountV0, nil
	}
	return nil, fmt.Errorf("unknown taxonomy %q", name)
}

// Check reports whether category belongs to the taxonomy.
func (t *Taxonomy) Check(category string) error {
	if !slices.Contains(t.Order, category) {
		return fmt.Errorf("%w %q in taxonomy %s", ErrUnknownCategory, category, t.Name)
	}
	return nil
}

// Color returns the display colour of a category, or "" if unknown.
func (t *Taxonomy) Color(category string) string {
	if i := slices.Index(t.Order, category); i >= 0 && i < len(t.Colors) {
		return t.Colors[i]
	}
	return ""
}

// NotReferring is the label for "no target in this group".
func NotReferring(group string) string { return group + "_not-referring" }

// Unclear is the label for "cannot tell whether this group is targeted".
func Unclear(group string) string { return group + "_unclear" }

// consensus returns "all" or "majority" when the largest group carries the item.
func consensus(groups []labelGroup, total int) (string, bool) {
	largest := groups[0].size
	switch {
	case largest == total:
		return "all", true
	case total > 2 && 2*largest > total:
		return "majority", true
	}
	return "", false
}

// target sub-classifies one label set.
func target(set []string, group string) string {
	switch {
	case len(set) == 1 && set[0] == NotReferring(group):
		return "not-targeting"
	case len(set) == 1 && set[0] == Unclear(group):
		return "unclear"
	}
	return "targeting"
}

// opinions walks the supported groups; targeting outranks unclear, which
// outranks not-targeting.
func opinions(groups []labelGroup, group string) string {
	out := "not-targeting"
	for _, g := range groups {
		if g.size < 2 {
			break
		}
		switch target(g.set, group) {
		case "targeting":
			return "targeting"
		case "unclear":
			out = "unclear"
		}
	}
	return out
}
