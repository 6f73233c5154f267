package reliability

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"gonum.org/v1/gonum/floats"
)

// ErrNonUniformRaters is returned by FleissKappa when items were not all rated
// by the same number of raters. Filter or downsample the table first.
var ErrNonUniformRaters = errors.New("items have different rater counts")

// CountTable holds, per item, how many raters assigned each category.
type CountTable struct {
	Items      []string
	Categories []string
	Counts     [][]float64
}

// AggregateRaters counts category assignments per item. Items keep first-seen
// order, categories are sorted, and missing ratings are skipped.
func AggregateRaters(t *dataset.Table, itemCol, ratingCol string) (*CountTable, error) {
	if err := t.Require(itemCol, ratingCol); err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", ratingCol, err)
	}
	items, groups, err := t.Groups(itemCol)
	if err != nil {
		return nil, err
	}

	var domain []dataset.Cell
	seen := make(map[string]bool)
	for i := 0; i < t.Len(); i++ {
		c := t.Cell(i, ratingCol)
		if !c.IsMissing() && !seen[c.Key()] {
			seen[c.Key()] = true
			domain = append(domain, c)
		}
	}
	sortDomain(domain)
	ct := &CountTable{
		Items:  slices.Clone(items),
		Counts: make([][]float64, len(items)),
	}
	col := make(map[string]int, len(domain))
	for j, c := range domain {
		ct.Categories = append(ct.Categories, c.Key())
		col[c.Key()] = j
	}
	for i, item := range items {
		ct.Counts[i] = make([]float64, len(domain))
		for _, r := range groups[item] {
			if c := t.Cell(r, ratingCol); !c.IsMissing() {
				ct.Counts[i][col[c.Key()]]++
			}
		}
	}
	return ct, nil
}

// FleissKappa computes Fleiss' kappa from a count table. Every item must have
// the same number of ratings; otherwise ErrNonUniformRaters is returned rather
// than a misleading number. NaN is returned for an empty table, fewer than two
// raters per item, or when chance agreement is one.
func FleissKappa(ct *CountTable) (float64, error) {
	if len(ct.Counts) == 0 || len(ct.Categories) == 0 {
		return math.NaN(), nil
	}
	nRaters := floats.Sum(ct.Counts[0])
	for i, row := range ct.Counts[1:] {
		if s := floats.Sum(row); s != nRaters {
			return math.NaN(), fmt.Errorf("%w: item %q has %v ratings, item %q has %v",
				ErrNonUniformRaters, ct.Items[0], nRaters, ct.Items[i+1], s)
		}
	}
	if nRaters < 2 {
		return math.NaN(), nil
	}

	nItems := float64(len(ct.Counts))
	pCat := make([]float64, len(ct.Categories))
	pItem := make([]float64, len(ct.Counts))
	for i, row := range ct.Counts {
		floats.Add(pCat, row)
		pItem[i] = (floats.Dot(row, row) - nRaters) / (nRaters * (nRaters - 1))
	}
	floats.Scale(1/(nItems*nRaters), pCat)

	pMean := floats.Sum(pItem) / nItems
	pExpected := floats.Dot(pCat, pCat)
	if pExpected == 1 {
		return math.NaN(), nil
	}
	return (pMean - pExpected) / (1 - pExpected), nil
}

// Fleiss aggregates one rating column per item and computes Fleiss' kappa.
func Fleiss(t *dataset.Table, itemCol, ratingCol string) (float64, error) {
	ct, err := AggregateRaters(t, itemCol, ratingCol)
	if err != nil {
		return math.NaN(), err
	}
	return FleissKappa(ct)
}
