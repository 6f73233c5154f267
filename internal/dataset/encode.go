package dataset

import (
	"slices"
)

// OneHot expands a multi-label column into one 0/1 column per label. The label
// vocabulary is discovered from the data, sorted, and returned to the caller
// alongside the expanded table. Missing cells encode as all zeros.
func OneHot(t *Table, name string) (*Table, []string, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[string]bool)
	var vocab []string
	for _, v := range values {
		for _, l := range v.List() {
			if !seen[l] {
				seen[l] = true
				vocab = append(vocab, l)
			}
		}
	}
	slices.Sort(vocab)

	out := t
	for _, label := range vocab {
		encoded := make([]Cell, len(values))
		for i, v := range values {
			encoded[i] = Number(0)
			if slices.Contains(v.List(), label) {
				encoded[i] = Number(1)
			}
		}
		if out, err = out.WithColumn(label, encoded); err != nil {
			return nil, nil, err
		}
	}
	return out, vocab, nil
}
