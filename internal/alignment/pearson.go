package alignment

import (
	"fmt"
	"math"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/report"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SelfCorrelationPolicy decides how a perfect correlation is reported. A
// partition compared with itself always correlates perfectly, which inflates
// alignment plots.
type SelfCorrelationPolicy int

const (
	// ReportSelfCorrelation keeps a 1.0 coefficient and its p-value.
	ReportSelfCorrelation SelfCorrelationPolicy = iota
	// SuppressSelfCorrelation reports an exact 1.0 coefficient as NaN.
	SuppressSelfCorrelation
)

// Correlation is the Pearson correlation between a partition's and the
// reference's per-item mean ratings.
type Correlation struct {
	Coefficient float64
	// PValue is two-sided and Bonferroni corrected (p x N, capped at 1).
	PValue float64
	// N is the number of items both partitions rated.
	N int
	// Suppressed marks a perfect correlation hidden by SuppressSelfCorrelation.
	Suppressed bool
}

// Apply enforces the policy on a rounded correlation.
func (p SelfCorrelationPolicy) Apply(c Correlation) Correlation {
	if p == SuppressSelfCorrelation && c.Coefficient == 1 {
		c.Coefficient = math.NaN()
		c.PValue = math.NaN()
		c.Suppressed = true
	}
	return c
}

// meanColumn holds the per-item mean in the tables built by itemMeans.
const meanColumn = "mean"

// itemMeans averages a numeric column per item into an (item, mean) table.
// Items without a rating are left out.
func itemMeans(t *dataset.Table, column, itemCol string) (*dataset.Table, error) {
	if err := t.Require(column, itemCol); err != nil {
		return nil, err
	}
	items, groups, err := t.Groups(itemCol)
	if err != nil {
		return nil, err
	}
	means := dataset.New(itemCol, meanColumn)
	for _, item := range items {
		var xs []float64
		for _, i := range groups[item] {
			c := t.Cell(i, column)
			if c.IsMissing() {
				continue
			}
			v, ok := c.Number()
			if !ok {
				return nil, fmt.Errorf("column %q is not numeric: %q", column, c.Key())
			}
			xs = append(xs, v)
		}
		if len(xs) == 0 {
			continue
		}
		if err := means.Append(t.Cell(groups[item][0], itemCol), dataset.Number(stat.Mean(xs, nil))); err != nil {
			return nil, err
		}
	}
	return means, nil
}

// Pearson correlates the per-item means of src and ref over the items both
// rated. The coefficient is rounded to precision decimals; an undefined
// correlation (fewer than two items, no variance) is NaN.
func Pearson(src, ref *dataset.Table, column, itemCol string, precision int) (Correlation, error) {
	srcMeans, err := itemMeans(src, column, itemCol)
	if err != nil {
		return Correlation{}, fmt.Errorf("pearson source: %w", err)
	}
	refMeans, err := itemMeans(ref, column, itemCol)
	if err != nil {
		return Correlation{}, fmt.Errorf("pearson reference: %w", err)
	}
	joined, err := dataset.Join(refMeans, srcMeans, []string{itemCol}, "_ref", "_src")
	if err != nil {
		return Correlation{}, fmt.Errorf("pearson: %w", err)
	}

	n := joined.Len()
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range n {
		x[i], _ = joined.Cell(i, meanColumn+"_src").Number()
		y[i], _ = joined.Cell(i, meanColumn+"_ref").Number()
	}
	c := Correlation{Coefficient: math.NaN(), PValue: math.NaN(), N: n}
	if n < 2 {
		return c, nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return c, nil
	}
	r = math.Max(-1, math.Min(1, r))
	c.Coefficient = report.Round(r, precision)
	c.PValue = math.Min(1, pValue(r, n)*float64(n))
	return c, nil
}

// pValue is the two-sided p-value of the t-test for a Pearson coefficient.
func pValue(r float64, n int) float64 {
	switch {
	case n == 2:
		return 1
	case math.Abs(r) == 1:
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}
