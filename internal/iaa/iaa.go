// Package iaa computes inter-annotator agreement across the two annotation
// phases and the change between them.
package iaa

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/monitoring"
	"github.com/banshee-data/agreement.report/internal/reliability"
	"github.com/banshee-data/agreement.report/internal/report"
)

// ErrUnknownCoefficient is returned for a coefficient kind that is not supported.
var ErrUnknownCoefficient = errors.New("unknown agreement coefficient")

// Coefficient selects the reliability statistic.
type Coefficient string

const (
	Krippendorff Coefficient = "krippendorff"
	Fleiss       Coefficient = "fleiss"
)

// Phases are the two annotation rounds.
var Phases = [2]int{1, 2}

// PhaseColumn names the column holding a label for one phase, e.g. "gender_bin_1".
func PhaseColumn(base string, phase int) string {
	return fmt.Sprintf("%s_%d", base, phase)
}

// Options configure coefficient computation.
type Options struct {
	RaterColumn   string
	ItemColumn    string
	OrdinalMarker string
	// Precision is the number of decimals kept in triples and tables.
	Precision int
	// AnnotationsPerItem, when positive, restricts Fleiss' kappa to items with
	// exactly that many annotations.
	AnnotationsPerItem int
	// Downsample switches the Fleiss restriction from filtering to sampling
	// larger items down to AnnotationsPerItem using SampleSeed.
	Downsample bool
	SampleSeed uint64
	Logf       monitoring.LogFunc
}

// DefaultOptions returns the column names and precision used by the study data.
func DefaultOptions() Options {
	return Options{
		RaterColumn:   "User",
		ItemColumn:    "Question ID",
		OrdinalMarker: reliability.DefaultOrdinalMarker,
		Precision:     3,
	}
}

// Triple is the phase 1 score, phase 2 score and their difference, rounded.
type Triple struct {
	Phase1 float64
	Phase2 float64
	Delta  float64
}

// Score computes one coefficient on one rating column. Undefined coefficients
// are NaN; a missing column is an error.
func Score(t *dataset.Table, kind Coefficient, column string, opts Options) (float64, error) {
	var (
		v   float64
		err error
	)
	switch kind {
	case Krippendorff:
		v, err = reliability.Krippendorff(t, opts.RaterColumn, opts.ItemColumn, column, opts.OrdinalMarker)
	case Fleiss:
		// count annotations, not rows: an unrated row must not keep its item
		subset := t.Filter(func(r dataset.Row) bool { return !r[column].IsMissing() })
		if opts.AnnotationsPerItem > 0 {
			if opts.Downsample {
				subset, err = reliability.DownsampleAnnotations(subset, opts.ItemColumn, opts.AnnotationsPerItem, opts.SampleSeed)
			} else {
				subset, err = reliability.KeepByAnnotationCount(subset, opts.ItemColumn, opts.AnnotationsPerItem)
			}
			if err != nil {
				return math.NaN(), err
			}
		}
		v, err = reliability.Fleiss(subset, opts.ItemColumn, column)
	default:
		return math.NaN(), fmt.Errorf("%w %q", ErrUnknownCoefficient, kind)
	}
	if err != nil {
		return math.NaN(), fmt.Errorf("%s on %s: %w", kind, column, err)
	}
	opts.Logf.Emit("%s %s = %.4f", kind, column, v)
	return v, nil
}

// PhaseScores computes the unrounded coefficient for "<base>_1" and "<base>_2".
func PhaseScores(t *dataset.Table, kind Coefficient, base string, opts Options) (p1, p2 float64, err error) {
	if err := t.Require(PhaseColumn(base, 1), PhaseColumn(base, 2)); err != nil {
		return math.NaN(), math.NaN(), fmt.Errorf("label %q: %w", base, err)
	}
	if p1, err = Score(t, kind, PhaseColumn(base, 1), opts); err != nil {
		return math.NaN(), math.NaN(), err
	}
	if p2, err = Score(t, kind, PhaseColumn(base, 2), opts); err != nil {
		return math.NaN(), math.NaN(), err
	}
	return p1, p2, nil
}

// NewTriple rounds both phase scores and the raw difference independently, so
// the delta never inherits rounding error from the displayed scores.
func NewTriple(p1, p2 float64, precision int) Triple {
	return Triple{
		Phase1: report.Round(p1, precision),
		Phase2: report.Round(p2, precision),
		Delta:  report.Round(p2-p1, precision),
	}
}

// ScoresAndDelta computes the agreement triple for one label.
func ScoresAndDelta(t *dataset.Table, kind Coefficient, base string, opts Options) (Triple, error) {
	p1, p2, err := PhaseScores(t, kind, base, opts)
	if err != nil {
		return Triple{math.NaN(), math.NaN(), math.NaN()}, err
	}
	return NewTriple(p1, p2, opts.Precision), nil
}
