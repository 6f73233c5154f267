package iaa

import (
	"fmt"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/report"
)

// Column names of aggregator tables.
const (
	ColPhase1 = "Phase 1"
	ColPhase2 = "Phase 2"
	ColDelta  = "Delta"
)

// LabelGroup is a named set of label base names, e.g. every sub-label of
// "gender", or the catch-all "other" questions.
type LabelGroup struct {
	Name   string
	Labels []string
}

// SortDirection orders rows by delta when no reference order is given.
type SortDirection int

const (
	Unsorted SortDirection = iota
	Ascending
	Descending
)

// Ordering decides the row order of an aggregator table. A non-empty Reference
// wins over ByDelta.
type Ordering struct {
	Reference []string
	ByDelta   SortDirection
}

// Apply returns g reordered.
func (o Ordering) Apply(g *report.Grid) (*report.Grid, error) {
	if len(o.Reference) > 0 {
		return g.Reorder(o.Reference)
	}
	switch o.ByDelta {
	case Ascending:
		return g.SortByColumn(ColDelta, false)
	case Descending:
		return g.SortByColumn(ColDelta, true)
	}
	return g.Clone(), nil
}

// Table computes the agreement triple for every label of every group and
// returns one row per label. A missing phase column for any label aborts the
// whole table.
func Table(t *dataset.Table, kind Coefficient, groups []LabelGroup, order Ordering, opts Options) (*report.Grid, error) {
	var rows []string
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, l := range g.Labels {
			if seen[l] {
				return nil, fmt.Errorf("label %q listed twice", l)
			}
			seen[l] = true
			rows = append(rows, l)
		}
	}

	grid := report.NewGrid(rows, []string{ColPhase1, ColPhase2, ColDelta})
	for i, label := range rows {
		tr, err := ScoresAndDelta(t, kind, label, opts)
		if err != nil {
			return nil, err
		}
		grid.Values[i][0] = tr.Phase1
		grid.Values[i][1] = tr.Phase2
		grid.Values[i][2] = tr.Delta
	}
	return order.Apply(grid)
}
