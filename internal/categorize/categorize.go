package categorize

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/monitoring"
)

var (
	// ErrNoAnnotations is returned when an item has no label sets to classify.
	ErrNoAnnotations = errors.New("no annotations")
	// ErrEmptyLabelSet is returned when an annotator's label set is empty. An
	// empty set carries no opinion and would otherwise read as targeting.
	ErrEmptyLabelSet = errors.New("empty label set")
)

type labelGroup struct {
	key  string
	set  []string
	size int
}

// groupLabelSets groups annotators by their exact label set, largest group
// first and ties broken by key.
func groupLabelSets(labelSets [][]string) []labelGroup {
	index := make(map[string]int)
	var groups []labelGroup
	for _, labels := range labelSets {
		set := dataset.LabelSet(labels)
		key := strings.Join(set, "|")
		if i, ok := index[key]; ok {
			groups[i].size++
			continue
		}
		index[key] = len(groups)
		groups = append(groups, labelGroup{key: key, set: set, size: 1})
	}
	sort.Slice(groups, func(a, b int) bool {
		if groups[a].size != groups[b].size {
			return groups[a].size > groups[b].size
		}
		return groups[a].key < groups[b].key
	})
	return groups
}

// Categorizer assigns disagreement categories under one taxonomy.
type Categorizer struct {
	Taxonomy *Taxonomy
	// Logf, when set, receives the group sizes of every classified item.
	Logf monitoring.LogFunc
}

// New returns a categorizer for the named taxonomy.
func New(taxonomy string, logf monitoring.LogFunc) (*Categorizer, error) {
	tax, err := Lookup(taxonomy)
	if err != nil {
		return nil, err
	}
	return &Categorizer{Taxonomy: tax, Logf: logf}, nil
}

// Classify returns the category of one item from the label sets of its
// annotators. group is the label group prefix ("gender" for
// "gender_not-referring"). The result does not depend on annotator order.
// Every label set must hold at least one label.
func (c *Categorizer) Classify(labelSets [][]string, group string) (string, error) {
	if len(labelSets) == 0 {
		return "", ErrNoAnnotations
	}
	for i, labels := range labelSets {
		if len(labels) == 0 {
			return "", fmt.Errorf("%w: annotator %d", ErrEmptyLabelSet, i)
		}
	}
	groups := groupLabelSets(labelSets)
	category := c.Taxonomy.rule(groups, len(labelSets), group)
	if c.Logf != nil {
		sizes := make([]int, len(groups))
		for i, g := range groups {
			sizes[i] = g.size
		}
		c.Logf("categorize: %s group sizes %v -> %s", group, sizes, category)
	}
	if err := c.Taxonomy.Check(category); err != nil {
		return "", err
	}
	return category, nil
}

// Assignment is the category of one item.
type Assignment struct {
	Item     string
	Category string
}

// Items classifies every item of a table. labelCol holds each annotator's
// label list; missing and empty cells are ignored. Items are returned in
// first-seen order.
func (c *Categorizer) Items(t *dataset.Table, itemCol, labelCol, group string) ([]Assignment, error) {
	if err := t.Require(itemCol, labelCol); err != nil {
		return nil, err
	}
	items, rows, err := t.Groups(itemCol)
	if err != nil {
		return nil, err
	}
	out := make([]Assignment, 0, len(items))
	for _, item := range items {
		var sets [][]string
		for _, i := range rows[item] {
			if labels := t.Cell(i, labelCol).List(); len(labels) > 0 {
				sets = append(sets, labels)
			}
		}
		if len(sets) == 0 {
			continue
		}
		category, err := c.Classify(sets, group)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", item, err)
		}
		out = append(out, Assignment{Item: item, Category: category})
	}
	return out, nil
}
