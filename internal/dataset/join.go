package dataset

import (
	"fmt"
	"strings"
)

// Join returns the inner join of left and right on the key columns. Non-key
// columns present on both sides get leftSuffix and rightSuffix appended, the way
// the two annotation phases become "<label>_1" and "<label>_2". Output rows
// follow left order, then right order within a key.
func Join(left, right *Table, on []string, leftSuffix, rightSuffix string) (*Table, error) {
	if len(on) == 0 {
		return nil, fmt.Errorf("join: no key columns")
	}
	if err := left.Require(on...); err != nil {
		return nil, fmt.Errorf("join left: %w", err)
	}
	if err := right.Require(on...); err != nil {
		return nil, fmt.Errorf("join right: %w", err)
	}

	isKey := make(map[string]bool, len(on))
	for _, k := range on {
		isKey[k] = true
	}
	leftName := make(map[string]string, len(left.columns))
	rightName := make(map[string]string, len(right.columns))
	var cols []string
	for _, c := range left.columns {
		name := c
		if !isKey[c] && right.HasColumn(c) {
			name = c + leftSuffix
		}
		leftName[c] = name
		cols = append(cols, name)
	}
	for _, c := range right.columns {
		if isKey[c] {
			continue
		}
		name := c
		if left.HasColumn(c) {
			name = c + rightSuffix
		}
		rightName[c] = name
		cols = append(cols, name)
	}
	out := New(cols...)
	if len(out.columns) != len(cols) {
		return nil, fmt.Errorf("join: suffixes %q/%q produce duplicate columns", leftSuffix, rightSuffix)
	}

	matches := make(map[string][]int)
	for i, r := range right.rows {
		if k, ok := compositeKey(r, on); ok {
			matches[k] = append(matches[k], i)
		}
	}
	for _, lr := range left.rows {
		k, ok := compositeKey(lr, on)
		if !ok {
			continue
		}
		for _, j := range matches[k] {
			row := make(Row, len(cols))
			for c, v := range lr {
				row[leftName[c]] = v
			}
			for c, v := range right.rows[j] {
				if !isKey[c] {
					row[rightName[c]] = v
				}
			}
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}

func compositeKey(r Row, on []string) (string, bool) {
	parts := make([]string, len(on))
	for i, k := range on {
		c := r[k]
		if c.IsMissing() {
			return "", false
		}
		parts[i] = c.Key()
	}
	return strings.Join(parts, "\x1f"), true
}
