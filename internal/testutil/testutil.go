// Package testutil provides shared test fixtures for rating tables and
// helpers for comparing result grids.
package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/report"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Column names used by the fixtures.
const (
	RaterColumn = "User"
	ItemColumn  = "Question ID"
)

// RatingTable converts a rater x item matrix into a long-format table with
// one row per rating. Raters are named r1.., items q1..; NaN marks a missing
// rating and produces no row.
func RatingTable(t testing.TB, column string, ratings [][]float64) *dataset.Table {
	t.Helper()
	tbl := dataset.New(RaterColumn, ItemColumn, column)
	for i, row := range ratings {
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			err := tbl.Append(
				dataset.Text(fmt.Sprintf("r%d", i+1)),
				dataset.Text(fmt.Sprintf("q%d", j+1)),
				dataset.Number(v),
			)
			AssertNoError(t, err)
		}
	}
	return tbl
}

// AssertGridEqual fails the test if the grids differ in labels or values.
// NaN cells compare equal to each other.
func AssertGridEqual(t testing.TB, want, got *report.Grid) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
