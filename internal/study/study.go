// Package study runs the complete agreement analysis of a two-phase
// annotation study in process: aggregator tables, subgroup alignment,
// disagreement categories and justification changes.
package study

import (
	"fmt"
	"slices"
	"strings"

	"github.com/banshee-data/agreement.report/internal/alignment"
	"github.com/banshee-data/agreement.report/internal/categorize"
	"github.com/banshee-data/agreement.report/internal/config"
	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/iaa"
	"github.com/banshee-data/agreement.report/internal/monitoring"
	"github.com/banshee-data/agreement.report/internal/rationale"
	"github.com/banshee-data/agreement.report/internal/report"
	"github.com/banshee-data/agreement.report/internal/version"
)

// Labels describes which columns of the data are analysed.
type Labels struct {
	// Groups are label groups scored as given, e.g. {"other", [hate_bin ...]}.
	// The one-hot labels of a target group are appended to the group of the
	// same name, which is created if absent.
	Groups []iaa.LabelGroup
	// Reference, when non-empty, fixes the row order of the aggregator tables.
	Reference []string
	// Justifications maps a target group to the base name of its free-text
	// justification columns, e.g. "gender" -> "Justify Gender".
	Justifications map[string]string
	// ContextColumn optionally names a column with the item context text.
	ContextColumn string
}

// Result is everything one analysis run produces.
type Result struct {
	// Tables are keyed "iaa/<coefficient>", "iaa/<coefficient>/<group>",
	// "alignment/<group>/<category>/<table>" and "categories/<group>/<table>".
	Tables report.Set
	// Samples has one row per item with a "category_<group>_<phase>" column
	// per target group and phase.
	Samples *dataset.Table
	// Annotations is the input data with one-hot and justification columns.
	Annotations *dataset.Table
	// Vocabulary lists the one-hot labels found per target group.
	Vocabulary map[string][]string
	// Experts records the reference partition per target group, category,
	// phase (0 for phase 1) and label.
	Experts map[string]map[string][2]map[string]string
	Record  monitoring.Record
}

// Analyze runs the study pipeline. data holds one row per annotator and item,
// with "<label>_1"/"<label>_2" columns and, per target group, the multi-label
// columns "<group>_cat_1"/"<group>_cat_2". attrs has one row per annotator.
// Neither table is modified.
func Analyze(data, attrs *dataset.Table, cfg *config.AnalysisConfig, labels Labels) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	tax, err := categorize.Lookup(cfg.GetTaxonomy())
	if err != nil {
		return nil, err
	}
	rec := monitoring.NewRecorder(monitoring.Logf)
	rec.Logf("study: agreement.report %s, taxonomy %s", version.String(), tax.Name)
	opts := scoreOptions(cfg, rec.Logf)
	itemCol := cfg.GetItemColumn()
	if err := data.Require(cfg.GetRaterColumn(), itemCol); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}

	res := &Result{
		Tables:     report.Set{},
		Vocabulary: make(map[string][]string),
		Experts:    make(map[string]map[string][2]map[string]string),
	}

	annotations := data
	groups := cloneGroups(labels.Groups)
	for _, g := range cfg.GetTargetGroups() {
		var vocab []string
		if annotations, vocab, err = expandPhases(annotations, g+"_cat"); err != nil {
			return nil, fmt.Errorf("target group %q: %w", g, err)
		}
		res.Vocabulary[g] = vocab
		rec.Logf("study: %s vocabulary %v", g, vocab)
		groups = appendToGroup(groups, g, vocab)
	}

	kind := iaa.Coefficient(cfg.GetCoefficient())
	order := ordering(cfg, labels.Reference)
	all, err := iaa.Table(annotations, kind, groups, order, opts)
	if err != nil {
		return nil, err
	}
	res.Tables[fmt.Sprintf("iaa/%s", kind)] = all
	rowOrder := make(map[string][]string, len(groups))
	for _, lg := range groups {
		g, err := iaa.Table(annotations, kind, []iaa.LabelGroup{lg}, ordering(cfg, within(labels.Reference, lg.Labels)), opts)
		if err != nil {
			return nil, fmt.Errorf("label group %q: %w", lg.Name, err)
		}
		res.Tables[fmt.Sprintf("iaa/%s/%s", kind, lg.Name)] = g
		rowOrder[lg.Name] = g.Rows
	}

	engine := alignment.NewEngine(alignmentConfig(cfg), opts)
	for _, g := range cfg.GetTargetGroups() {
		results, err := engine.Disaggregate(annotations, attrs, rowOrder[g], g, rowOrder[g])
		if err != nil {
			return nil, fmt.Errorf("alignment %q: %w", g, err)
		}
		res.Experts[g] = make(map[string][2]map[string]string, len(results))
		for _, r := range results {
			res.Tables.Merge(fmt.Sprintf("alignment/%s/%s/", g, r.Category), r.Tables())
			res.Experts[g][r.Category] = r.Experts
		}
	}

	if res.Samples, err = items(annotations, itemCol); err != nil {
		return nil, err
	}
	cat := &categorize.Categorizer{Taxonomy: tax, Logf: rec.Logf}
	for _, g := range cfg.GetTargetGroups() {
		var phases [2][]categorize.Assignment
		for i, phase := range iaa.Phases {
			if phases[i], err = cat.Items(annotations, itemCol, iaa.PhaseColumn(g+"_cat", phase), g); err != nil {
				return nil, fmt.Errorf("categorize %q: %w", g, err)
			}
			column := fmt.Sprintf("category_%s_%d", g, phase)
			if res.Samples, err = categorize.Annotate(res.Samples, itemCol, column, phases[i]); err != nil {
				return nil, err
			}
		}
		freq, err := categorize.Frequencies(phases[0], phases[1], tax)
		if err != nil {
			return nil, fmt.Errorf("categorize %q: %w", g, err)
		}
		trans, err := categorize.Transitions(phases[0], phases[1], tax)
		if err != nil {
			return nil, fmt.Errorf("categorize %q: %w", g, err)
		}
		res.Tables[fmt.Sprintf("categories/%s/frequencies", g)] = freq
		res.Tables[fmt.Sprintf("categories/%s/transitions", g)] = trans
	}

	if annotations, err = justifications(annotations, labels); err != nil {
		return nil, err
	}
	res.Annotations = annotations
	res.Record = rec.Snapshot()
	return res, nil
}

func cloneGroups(groups []iaa.LabelGroup) []iaa.LabelGroup {
	out := make([]iaa.LabelGroup, len(groups))
	for i, g := range groups {
		out[i] = iaa.LabelGroup{Name: g.Name, Labels: append([]string(nil), g.Labels...)}
	}
	return out
}

// within keeps the names of order that occur in labels.
func within(order, labels []string) []string {
	var out []string
	for _, name := range order {
		if slices.Contains(labels, name) {
			out = append(out, name)
		}
	}
	return out
}

func appendToGroup(groups []iaa.LabelGroup, name string, labels []string) []iaa.LabelGroup {
	for i := range groups {
		if groups[i].Name == name {
			groups[i].Labels = append(groups[i].Labels, labels...)
			return groups
		}
	}
	return append(groups, iaa.LabelGroup{Name: name, Labels: labels})
}

// items returns one row per distinct item in first-seen order.
func items(t *dataset.Table, itemCol string) (*dataset.Table, error) {
	values, err := t.Distinct(itemCol)
	if err != nil {
		return nil, err
	}
	out := dataset.New(itemCol)
	for _, v := range values {
		if err := out.Append(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// justifications adds "justify_change_<group>" and, with a context column,
// "justify_context_<group>".
func justifications(t *dataset.Table, labels Labels) (*dataset.Table, error) {
	groups := make([]string, 0, len(labels.Justifications))
	for g := range labels.Justifications {
		groups = append(groups, g)
	}
	// deterministic column order
	groups = dataset.LabelSet(groups)
	var err error
	for _, g := range groups {
		base := labels.Justifications[g]
		change := "justify_change_" + g
		if t, err = rationale.JustificationChange(t, iaa.PhaseColumn(base, 1), iaa.PhaseColumn(base, 2), change); err != nil {
			return nil, fmt.Errorf("justifications %q: %w", g, err)
		}
		if labels.ContextColumn == "" {
			continue
		}
		if err := t.Require(labels.ContextColumn); err != nil {
			return nil, fmt.Errorf("justifications %q: %w", g, err)
		}
		if t, err = t.Derive("justify_context_"+g, func(r dataset.Row) dataset.Cell {
			var stems []string
			if s := r[change].Text(); s != "" {
				stems = strings.Split(s, ", ")
			}
			ctx := ""
			if c := r[labels.ContextColumn]; !c.IsMissing() {
				ctx = c.Text()
			}
			return dataset.Text(strings.Join(rationale.ContextOverlap(stems, ctx), ", "))
		}); err != nil {
			return nil, err
		}
	}
	return t, nil
}
