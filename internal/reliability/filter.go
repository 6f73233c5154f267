package reliability

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// KeepByAnnotationCount returns the rows whose group (by column) has exactly n
// rows. Rows with a missing key are dropped. The input table is not modified.
func KeepByAnnotationCount(t *dataset.Table, by string, n int) (*dataset.Table, error) {
	keys, groups, err := t.Groups(by)
	if err != nil {
		return nil, fmt.Errorf("keep by annotation count: %w", err)
	}
	var keep []int
	for _, k := range keys {
		if len(groups[k]) == n {
			keep = append(keep, groups[k]...)
		}
	}
	slices.Sort(keep)
	return t.Subset(keep), nil
}

// DownsampleAnnotations reduces every group (by column) to exactly n rows by
// sampling without replacement. Groups with fewer than n rows are dropped.
// The same seed always selects the same rows; row order is preserved.
func DownsampleAnnotations(t *dataset.Table, by string, n int, seed uint64) (*dataset.Table, error) {
	if n <= 0 {
		return nil, fmt.Errorf("downsample: target count must be positive, got %d", n)
	}
	keys, groups, err := t.Groups(by)
	if err != nil {
		return nil, fmt.Errorf("downsample: %w", err)
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	picked := make([]int, n)
	var keep []int
	for _, k := range keys {
		rows := groups[k]
		switch {
		case len(rows) < n:
			continue
		case len(rows) == n:
			keep = append(keep, rows...)
		default:
			sampleuv.WithoutReplacement(picked, len(rows), src)
			for _, p := range picked {
				keep = append(keep, rows[p])
			}
		}
	}
	slices.Sort(keep)
	return t.Subset(keep), nil
}
