// Package dataset holds the in-memory long-format tables the analysis works on.
//
// A Table is append-only while it is being built; every derived table (filter,
// subset, join, new column) is a new value and never mutates its source.
package dataset

import (
	"errors"
	"fmt"
	"slices"
)

// ErrMissingColumn is returned when a referenced column is absent. It signals a
// schema mismatch between the loaded data and the analysis configuration.
var ErrMissingColumn = errors.New("missing column")

// Row maps column names to cells.
type Row map[string]Cell

// Table is an ordered set of rows over a fixed column list.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, dup := t.index[c]; dup {
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t
}

// FromRows builds a table from rows. Cells absent from a row are missing.
func FromRows(columns []string, rows ...Row) (*Table, error) {
	t := New(columns...)
	for _, r := range rows {
		if err := t.AppendRow(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Append adds a row given positionally in column order.
func (t *Table) Append(values ...Cell) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("append: got %d values for %d columns", len(values), len(t.columns))
	}
	r := make(Row, len(values))
	for i, v := range values {
		r[t.columns[i]] = v
	}
	t.rows = append(t.rows, r)
	return nil
}

// AppendRow adds a row by column name.
func (t *Table) AppendRow(r Row) error {
	out := make(Row, len(t.columns))
	for name, v := range r {
		if _, ok := t.index[name]; !ok {
			return fmt.Errorf("append: %w %q", ErrMissingColumn, name)
		}
		out[name] = v
	}
	t.rows = append(t.rows, out)
	return nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Require returns ErrMissingColumn naming the first absent column.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return fmt.Errorf("%w %q", ErrMissingColumn, n)
		}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Cell returns the value at row i, column name. Absent cells are missing.
func (t *Table) Cell(i int, name string) Cell { return t.rows[i][name] }

// Row returns a copy of row i.
func (t *Table) Row(i int) Row {
	out := make(Row, len(t.rows[i]))
	for k, v := range t.rows[i] {
		out[k] = v
	}
	return out
}

// Column returns the values of one column.
func (t *Table) Column(name string) ([]Cell, error) {
	if err := t.Require(name); err != nil {
		return nil, err
	}
	out := make([]Cell, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[name]
	}
	return out, nil
}

// derive returns an empty table sharing t's schema.
func (t *Table) derive(capacity int) *Table {
	return &Table{
		columns: t.columns,
		index:   t.index,
		rows:    make([]Row, 0, capacity),
	}
}

// Subset returns the rows at the given indices, in that order.
func (t *Table) Subset(indices []int) *Table {
	out := t.derive(len(indices))
	for _, i := range indices {
		out.rows = append(out.rows, t.rows[i])
	}
	return out
}

// Filter returns the rows for which keep returns true. keep receives a copy.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := t.derive(0)
	for i, r := range t.rows {
		if keep(t.Row(i)) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Distinct returns the non-missing values of a column in first-seen order.
func (t *Table) Distinct(name string) ([]Cell, error) {
	keys, _, err := t.Groups(name)
	if err != nil {
		return nil, err
	}
	first := make(map[string]Cell, len(keys))
	for _, r := range t.rows {
		c := r[name]
		if c.IsMissing() {
			continue
		}
		if _, ok := first[c.Key()]; !ok {
			first[c.Key()] = c
		}
	}
	out := make([]Cell, len(keys))
	for i, k := range keys {
		out[i] = first[k]
	}
	return out, nil
}

// Groups partitions row indices by the key of a column. Keys are returned in
// first-seen order; rows with a missing value are not grouped.
func (t *Table) Groups(name string) ([]string, map[string][]int, error) {
	if err := t.Require(name); err != nil {
		return nil, nil, err
	}
	var keys []string
	groups := make(map[string][]int)
	for i, r := range t.rows {
		c := r[name]
		if c.IsMissing() {
			continue
		}
		k := c.Key()
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	return keys, groups, nil
}

// WithColumn returns a new table with the column added, or replaced when it
// already exists.
func (t *Table) WithColumn(name string, values []Cell) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q: got %d values for %d rows", name, len(values), len(t.rows))
	}
	cols := t.columns
	if !t.HasColumn(name) {
		cols = append(slices.Clone(t.columns), name)
	}
	out := New(cols...)
	out.rows = make([]Row, len(t.rows))
	for i := range t.rows {
		r := t.Row(i)
		r[name] = values[i]
		out.rows[i] = r
	}
	return out, nil
}

// Derive returns a new table with a column computed from every row.
func (t *Table) Derive(name string, f func(Row) Cell) (*Table, error) {
	values := make([]Cell, len(t.rows))
	for i := range t.rows {
		values[i] = f(t.Row(i))
	}
	return t.WithColumn(name, values)
}
