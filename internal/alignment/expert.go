// Package alignment disaggregates agreement by annotator subgroup and measures
// how closely each subgroup follows a reference ("expert") subgroup.
package alignment

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/banshee-data/agreement.report/internal/dataset"
)

// ErrUnknownPartition is returned when a candidate or pinned reference value
// does not occur in the attribute table.
var ErrUnknownPartition = errors.New("unknown partition value")

// Overrides pins the reference partition per category and label group:
// category -> label group -> partition value.
type Overrides map[string]map[string]string

// Lookup returns the pinned value for a category and label group.
func (o Overrides) Lookup(category, labelGroup string) (string, bool) {
	v, ok := o[category][labelGroup]
	return v, ok
}

// SelectExpert returns the candidate whose score at position is highest. Ties
// go to the earlier candidate and NaN never wins; if every score is NaN the
// first candidate is returned. A single candidate is returned as is.
func SelectExpert(values map[string][]float64, position int, candidates []string) (string, error) {
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("select expert: no candidates")
	case 1:
		return candidates[0], nil
	}
	best, bestV := -1, math.Inf(-1)
	for i, c := range candidates {
		vec, ok := values[c]
		if !ok {
			return "", fmt.Errorf("select expert: %w %q", ErrUnknownPartition, c)
		}
		if position < 0 || position >= len(vec) {
			return "", fmt.Errorf("select expert: position %d out of range for %q", position, c)
		}
		v := vec[position]
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > bestV {
			best, bestV = i, v
		}
	}
	if best < 0 {
		best = 0
	}
	return candidates[best], nil
}

// Partition is the slice of the data annotated by raters sharing one attribute value.
type Partition struct {
	Value  string
	Raters []string
	Data   *dataset.Table
}

// Partitions splits data by an annotator attribute. Values come from the
// attribute table in first-seen order; each partition holds the data rows of
// the raters carrying that value. Neither table is modified.
func Partitions(data, attrs *dataset.Table, raterCol, category string) ([]Partition, error) {
	if err := attrs.Require(raterCol, category); err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	if err := data.Require(raterCol); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	values, groups, err := attrs.Groups(category)
	if err != nil {
		return nil, err
	}
	out := make([]Partition, 0, len(values))
	for _, v := range values {
		var raters []string
		for _, i := range groups[v] {
			if r := attrs.Cell(i, raterCol); !r.IsMissing() && !slices.Contains(raters, r.Key()) {
				raters = append(raters, r.Key())
			}
		}
		members := make(map[string]bool, len(raters))
		for _, r := range raters {
			members[r] = true
		}
		out = append(out, Partition{
			Value:  v,
			Raters: raters,
			Data: data.Filter(func(r dataset.Row) bool {
				return members[r[raterCol].Key()]
			}),
		})
	}
	return out, nil
}
