// Package report holds the labelled score tables handed to the rendering layer.
package report

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
)

// Grid is a row and column labelled table of scores. Undefined statistics are
// stored as NaN and never replaced by zero.
type Grid struct {
	Rows   []string
	Cols   []string
	Values [][]float64
}

// NewGrid returns a grid with every cell set to NaN.
func NewGrid(rows, cols []string) *Grid {
	g := &Grid{
		Rows:   slices.Clone(rows),
		Cols:   slices.Clone(cols),
		Values: make([][]float64, len(rows)),
	}
	for i := range g.Values {
		g.Values[i] = make([]float64, len(cols))
		for j := range g.Values[i] {
			g.Values[i][j] = math.NaN()
		}
	}
	return g
}

func (g *Grid) rowIndex(row string) int { return slices.Index(g.Rows, row) }
func (g *Grid) colIndex(col string) int { return slices.Index(g.Cols, col) }

// Set stores v at (row, col).
func (g *Grid) Set(row, col string, v float64) error {
	i, j := g.rowIndex(row), g.colIndex(col)
	if i < 0 || j < 0 {
		return fmt.Errorf("grid has no cell (%q, %q)", row, col)
	}
	g.Values[i][j] = v
	return nil
}

// At returns the value at (row, col) and whether the cell exists.
func (g *Grid) At(row, col string) (float64, bool) {
	i, j := g.rowIndex(row), g.colIndex(col)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return g.Values[i][j], true
}

// Column returns a copy of one column in row order.
func (g *Grid) Column(col string) ([]float64, bool) {
	j := g.colIndex(col)
	if j < 0 {
		return nil, false
	}
	out := make([]float64, len(g.Rows))
	for i := range g.Rows {
		out[i] = g.Values[i][j]
	}
	return out, true
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{
		Rows:   slices.Clone(g.Rows),
		Cols:   slices.Clone(g.Cols),
		Values: make([][]float64, len(g.Values)),
	}
	for i, r := range g.Values {
		out.Values[i] = slices.Clone(r)
	}
	return out
}

// permute returns a copy with rows in the order of idx.
func (g *Grid) permute(idx []int) *Grid {
	out := &Grid{
		Rows:   make([]string, len(idx)),
		Cols:   slices.Clone(g.Cols),
		Values: make([][]float64, len(idx)),
	}
	for k, i := range idx {
		out.Rows[k] = g.Rows[i]
		out.Values[k] = slices.Clone(g.Values[i])
	}
	return out
}

// Reorder returns a copy whose rows follow order. Every row named in order must
// exist; rows not named keep their relative order after the named ones.
func (g *Grid) Reorder(order []string) (*Grid, error) {
	used := make([]bool, len(g.Rows))
	idx := make([]int, 0, len(g.Rows))
	for _, name := range order {
		i := g.rowIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("reorder: unknown row %q", name)
		}
		if used[i] {
			continue
		}
		used[i] = true
		idx = append(idx, i)
	}
	for i := range g.Rows {
		if !used[i] {
			idx = append(idx, i)
		}
	}
	return g.permute(idx), nil
}

// SortByColumn returns a copy with rows stably sorted by one column. NaN rows go
// last in either direction.
func (g *Grid) SortByColumn(col string, descending bool) (*Grid, error) {
	j := g.colIndex(col)
	if j < 0 {
		return nil, fmt.Errorf("sort: unknown column %q", col)
	}
	idx := make([]int, len(g.Rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := g.Values[idx[a]][j], g.Values[idx[b]][j]
		switch {
		case math.IsNaN(va):
			return false
		case math.IsNaN(vb):
			return true
		case descending:
			return va > vb
		default:
			return va < vb
		}
	})
	return g.permute(idx), nil
}

// Set is a collection of named grids.
type Set map[string]*Grid

// Keys returns the grid names sorted.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Merge copies every grid of o into s under prefix + name.
func (s Set) Merge(prefix string, o Set) {
	for k, g := range o {
		s[prefix+k] = g
	}
}

// Round rounds v to the given number of decimals. The exact binary value is
// rounded, the same way it would be printed with that precision. NaN and
// infinities pass through unchanged.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
