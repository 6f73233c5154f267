package categorize

import (
	"fmt"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/iaa"
	"github.com/banshee-data/agreement.report/internal/report"
)

// Frequencies returns the share of items per category in percent, rows in
// taxonomy order and one column per phase. Categories nobody hit are zero.
func Frequencies(phase1, phase2 []Assignment, tax *Taxonomy) (*report.Grid, error) {
	g := report.NewGrid(tax.Order, []string{iaa.ColPhase1, iaa.ColPhase2})
	for j, phase := range [][]Assignment{phase1, phase2} {
		col := g.Cols[j]
		counts := make(map[string]int, len(tax.Order))
		for _, a := range phase {
			if err := tax.Check(a.Category); err != nil {
				return nil, err
			}
			counts[a.Category]++
		}
		for _, cat := range tax.Order {
			v := 0.0
			if len(phase) > 0 {
				v = 100 * float64(counts[cat]) / float64(len(phase))
			}
			if err := g.Set(cat, col, v); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Transitions counts how items moved between categories from phase 1 (rows)
// to phase 2 (columns). Items categorized in only one phase are skipped.
func Transitions(phase1, phase2 []Assignment, tax *Taxonomy) (*report.Grid, error) {
	g := report.NewGrid(tax.Order, tax.Order)
	for i := range g.Values {
		for j := range g.Values[i] {
			g.Values[i][j] = 0
		}
	}
	after := make(map[string]string, len(phase2))
	for _, a := range phase2 {
		if err := tax.Check(a.Category); err != nil {
			return nil, err
		}
		after[a.Item] = a.Category
	}
	for _, a := range phase1 {
		if err := tax.Check(a.Category); err != nil {
			return nil, err
		}
		to, ok := after[a.Item]
		if !ok {
			continue
		}
		v, _ := g.At(a.Category, to)
		if err := g.Set(a.Category, to, v+1); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Annotate returns samples with a column holding each item's category.
// Items without an assignment get a missing cell.
func Annotate(samples *dataset.Table, itemCol, column string, assignments []Assignment) (*dataset.Table, error) {
	if err := samples.Require(itemCol); err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	byItem := make(map[string]string, len(assignments))
	for _, a := range assignments {
		byItem[a.Item] = a.Category
	}
	return samples.Derive(column, func(r dataset.Row) dataset.Cell {
		if cat, ok := byItem[r[itemCol].Key()]; ok {
			return dataset.Text(cat)
		}
		return dataset.Missing()
	})
}
