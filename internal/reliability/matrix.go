// Package reliability computes inter-rater reliability coefficients over sparse,
// incomplete rating data.
//
// Undefined coefficients (no pairable ratings, no variance) are reported as NaN.
// Errors are reserved for schema problems and precondition violations.
package reliability

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/banshee-data/agreement.report/internal/dataset"
)

// Level is the measurement level used to weigh disagreements.
type Level int

const (
	Nominal Level = iota
	Ordinal
	Interval
)

func (l Level) String() string {
	switch l {
	case Nominal:
		return "nominal"
	case Ordinal:
		return "ordinal"
	case Interval:
		return "interval"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// DefaultOrdinalMarker tags binary/ordinal rating columns, e.g. "gender_bin_1".
const DefaultOrdinalMarker = "_bin"

// LevelForColumn returns Ordinal when the column name carries the marker and
// Nominal otherwise. An empty marker uses DefaultOrdinalMarker.
func LevelForColumn(column, marker string) Level {
	if marker == "" {
		marker = DefaultOrdinalMarker
	}
	if strings.Contains(column, marker) {
		return Ordinal
	}
	return Nominal
}

// Matrix is a [rater x item] reliability matrix. Each cell is an index into
// Domain, or -1 when the rater did not rate the item.
type Matrix struct {
	Raters []string
	Items  []string
	Domain []dataset.Cell
	codes  [][]int
}

// NewMatrix builds a matrix from raw rows of cells, one row per rater. Missing
// cells mean "not rated".
func NewMatrix(raters, items []string, values [][]dataset.Cell) (*Matrix, error) {
	if len(values) != len(raters) {
		return nil, fmt.Errorf("matrix: %d rows for %d raters", len(values), len(raters))
	}
	m := &Matrix{
		Raters: slices.Clone(raters),
		Items:  slices.Clone(items),
		codes:  make([][]int, len(raters)),
	}
	seen := make(map[string]dataset.Cell)
	for i, row := range values {
		if len(row) != len(items) {
			return nil, fmt.Errorf("matrix: rater %q has %d values for %d items", raters[i], len(row), len(items))
		}
		for _, c := range row {
			if !c.IsMissing() {
				seen[c.Key()] = c
			}
		}
	}
	for _, c := range seen {
		m.Domain = append(m.Domain, c)
	}
	sortDomain(m.Domain)
	code := make(map[string]int, len(m.Domain))
	for i, c := range m.Domain {
		code[c.Key()] = i
	}
	for i, row := range values {
		m.codes[i] = make([]int, len(items))
		for j, c := range row {
			m.codes[i][j] = -1
			if !c.IsMissing() {
				m.codes[i][j] = code[c.Key()]
			}
		}
	}
	return m, nil
}

// sortDomain orders values numerically when every value is a number and by key
// otherwise.
func sortDomain(domain []dataset.Cell) {
	numeric := true
	for _, c := range domain {
		if c.Kind() != dataset.KindNumber {
			numeric = false
			break
		}
	}
	slices.SortFunc(domain, func(a, b dataset.Cell) int {
		if numeric {
			va, _ := a.Number()
			vb, _ := b.Number()
			return cmp.Compare(va, vb)
		}
		return cmp.Compare(a.Key(), b.Key())
	})
}

// Pivot builds the reliability matrix for one rating column of a long-format
// table. Raters and items keep first-seen order; when a rater rated an item
// more than once the first non-missing rating is kept.
func Pivot(t *dataset.Table, raterCol, itemCol, ratingCol string) (*Matrix, error) {
	if err := t.Require(raterCol, itemCol, ratingCol); err != nil {
		return nil, fmt.Errorf("pivot %s: %w", ratingCol, err)
	}
	raterIdx := make(map[string]int)
	itemIdx := make(map[string]int)
	var raters, items []string
	type obs struct {
		rater, item int
		value       dataset.Cell
	}
	var observations []obs
	for i := 0; i < t.Len(); i++ {
		r, it := t.Cell(i, raterCol), t.Cell(i, itemCol)
		if r.IsMissing() || it.IsMissing() {
			continue
		}
		ri, ok := raterIdx[r.Key()]
		if !ok {
			ri = len(raters)
			raterIdx[r.Key()] = ri
			raters = append(raters, r.Key())
		}
		ii, ok := itemIdx[it.Key()]
		if !ok {
			ii = len(items)
			itemIdx[it.Key()] = ii
			items = append(items, it.Key())
		}
		observations = append(observations, obs{ri, ii, t.Cell(i, ratingCol)})
	}

	values := make([][]dataset.Cell, len(raters))
	for i := range values {
		values[i] = make([]dataset.Cell, len(items))
	}
	for _, o := range observations {
		if values[o.rater][o.item].IsMissing() {
			values[o.rater][o.item] = o.value
		}
	}
	return NewMatrix(raters, items, values)
}

// Rated returns how many raters rated each item.
func (m *Matrix) Rated() []int {
	out := make([]int, len(m.Items))
	for _, row := range m.codes {
		for j, c := range row {
			if c >= 0 {
				out[j]++
			}
		}
	}
	return out
}
