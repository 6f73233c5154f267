package dataset

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies what a Cell holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindList
)

// Cell is one table value: a nominal label, a number (binary/ordinal ratings use
// 0, 0.5 and 1), a multi-label list, or missing. Missing means "not rated" and is
// never treated as a category.
type Cell struct {
	kind Kind
	text string
	num  float64
	list []string
}

// Missing returns the empty cell.
func Missing() Cell { return Cell{} }

// Text returns a nominal label cell.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Number returns a numeric cell. NaN is stored as missing.
func Number(v float64) Cell {
	if math.IsNaN(v) {
		return Cell{}
	}
	return Cell{kind: KindNumber, num: v}
}

// List returns a multi-label cell. The labels are copied.
func List(labels ...string) Cell {
	return Cell{kind: KindList, list: slices.Clone(labels)}
}

// Kind reports what the cell holds.
func (c Cell) Kind() Kind { return c.kind }

// IsMissing reports whether the cell is empty.
func (c Cell) IsMissing() bool { return c.kind == KindMissing }

// Text returns the label of a text cell, or the canonical key otherwise.
func (c Cell) Text() string {
	if c.kind == KindText {
		return c.text
	}
	return c.Key()
}

// Number returns the numeric value and whether the cell is numeric.
func (c Cell) Number() (float64, bool) {
	if c.kind != KindNumber {
		return math.NaN(), false
	}
	return c.num, true
}

// List returns a copy of the labels of a list cell. Text cells yield a single
// label; everything else yields nil.
func (c Cell) List() []string {
	switch c.kind {
	case KindList:
		return slices.Clone(c.list)
	case KindText:
		return []string{c.text}
	}
	return nil
}

// Key is the canonical grouping key. Lists are keyed by their sorted, de-duplicated
// labels so that {a, b} and {b, a, a} collapse to the same key.
func (c Cell) Key() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.num, 'g', -1, 64)
	case KindList:
		return strings.Join(LabelSet(c.list), "|")
	}
	return ""
}

// Equal reports whether both cells hold the same kind and key.
func (c Cell) Equal(o Cell) bool {
	return c.kind == o.kind && c.Key() == o.Key()
}

// LabelSet returns the sorted distinct labels.
func LabelSet(labels []string) []string {
	out := slices.Clone(labels)
	slices.Sort(out)
	return slices.Compact(out)
}
