package reliability

import (
	"fmt"
	"math"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KrippendorffAlpha computes Krippendorff's alpha for the matrix at the given
// measurement level. Raters may rate any subset of items; items with fewer
// than two ratings are not pairable and do not contribute.
//
// NaN is returned when fewer than two values occur, nothing is pairable, or the
// expected disagreement is zero.
func KrippendorffAlpha(m *Matrix, level Level) (float64, error) {
	k := len(m.Domain)
	if level == Interval {
		for _, c := range m.Domain {
			if _, ok := c.Number(); !ok {
				return math.NaN(), fmt.Errorf("interval alpha needs numeric ratings, got %q", c.Key())
			}
		}
	}
	if k < 2 {
		return math.NaN(), nil
	}

	// Coincidence matrix over pairable units.
	o := mat.NewDense(k, k, nil)
	counts := make([]float64, k)
	for j, rated := range m.Rated() {
		if rated < 2 {
			continue
		}
		mu := float64(rated)
		for c := range counts {
			counts[c] = 0
		}
		for i := range m.Raters {
			if c := m.codes[i][j]; c >= 0 {
				counts[c]++
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < k; d++ {
				v := counts[c] * counts[d]
				if c == d {
					v -= counts[c]
				}
				if v != 0 {
					o.Set(c, d, o.At(c, d)+v/(mu-1))
				}
			}
		}
	}

	nc := make([]float64, k)
	for c := range nc {
		nc[c] = floats.Sum(o.RawRowView(c))
	}
	n := floats.Sum(nc)
	if n <= 1 {
		return math.NaN(), nil
	}

	delta, err := distances(m.Domain, nc, level)
	if err != nil {
		return math.NaN(), err
	}

	var observed mat.Dense
	observed.MulElem(o, delta)
	ncVec := mat.NewVecDense(k, nc)
	var expected mat.Dense
	expected.Outer(1/(n-1), ncVec, ncVec)
	expected.MulElem(&expected, delta)

	do, de := mat.Sum(&observed), mat.Sum(&expected)
	if de == 0 {
		return math.NaN(), nil
	}
	return 1 - do/de, nil
}

// distances returns the squared difference function for the level.
func distances(domain []dataset.Cell, nc []float64, level Level) (*mat.Dense, error) {
	k := len(domain)
	d := mat.NewDense(k, k, nil)
	for c := 0; c < k; c++ {
		for e := 0; e < k; e++ {
			if c == e {
				continue
			}
			var v float64
			switch level {
			case Nominal:
				v = 1
			case Ordinal:
				lo, hi := min(c, e), max(c, e)
				s := floats.Sum(nc[lo:hi+1]) - (nc[lo]+nc[hi])/2
				v = s * s
			case Interval:
				a, _ := domain[c].Number()
				b, _ := domain[e].Number()
				v = (a - b) * (a - b)
			default:
				return nil, fmt.Errorf("unknown measurement level %v", level)
			}
			d.Set(c, e, v)
		}
	}
	return d, nil
}

// Krippendorff pivots one rating column of a long-format table and computes
// alpha. The measurement level follows the column name (see LevelForColumn).
func Krippendorff(t *dataset.Table, raterCol, itemCol, ratingCol, ordinalMarker string) (float64, error) {
	m, err := Pivot(t, raterCol, itemCol, ratingCol)
	if err != nil {
		return math.NaN(), err
	}
	return KrippendorffAlpha(m, LevelForColumn(ratingCol, ordinalMarker))
}
