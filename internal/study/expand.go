package study

import (
	"fmt"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/iaa"
)

// expandPhases one-hot encodes the multi-label column "<base>_1"/"<base>_2"
// into "<label>_1"/"<label>_2" columns. The vocabulary is the sorted union of
// both phases; a label one phase never used encodes as zeros there.
func expandPhases(t *dataset.Table, base string) (*dataset.Table, []string, error) {
	var encoded [2]*dataset.Table
	var vocab []string
	for i, phase := range iaa.Phases {
		col := iaa.PhaseColumn(base, phase)
		values, err := t.Column(col)
		if err != nil {
			return nil, nil, err
		}
		// encode a single-column copy so labels cannot clash with data columns
		single := dataset.New(col)
		for _, v := range values {
			if err := single.Append(v); err != nil {
				return nil, nil, err
			}
		}
		var labels []string
		if encoded[i], labels, err = dataset.OneHot(single, col); err != nil {
			return nil, nil, err
		}
		vocab = append(vocab, labels...)
	}
	vocab = dataset.LabelSet(vocab)

	out := t
	for i, phase := range iaa.Phases {
		for _, label := range vocab {
			values := make([]dataset.Cell, t.Len())
			if encoded[i].HasColumn(label) {
				col, err := encoded[i].Column(label)
				if err != nil {
					return nil, nil, err
				}
				copy(values, col)
			} else {
				for j := range values {
					values[j] = dataset.Number(0)
				}
			}
			name := iaa.PhaseColumn(label, phase)
			if t.HasColumn(name) {
				return nil, nil, fmt.Errorf("one-hot column %q already exists", name)
			}
			var err error
			if out, err = out.WithColumn(name, values); err != nil {
				return nil, nil, err
			}
		}
	}
	return out, vocab, nil
}
