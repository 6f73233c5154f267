package alignment

import (
	"fmt"
	"runtime"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/iaa"
	"github.com/banshee-data/agreement.report/internal/report"
	"golang.org/x/sync/errgroup"
)

// Config controls the disaggregated analysis.
type Config struct {
	// Categories are the annotator attribute columns to partition by.
	Categories []string
	// Candidates lists, per category, the partition values eligible as the
	// reference. A category without candidates considers every value.
	Candidates      map[string][]string
	Overrides       Overrides
	SelfCorrelation SelfCorrelationPolicy
	Coefficient     iaa.Coefficient
	// CorrelationPrecision is the number of decimals kept in coefficients.
	CorrelationPrecision int
	// Parallel bounds how many partitions are scored at once; zero uses
	// GOMAXPROCS. The options' Logf must then be safe for concurrent use.
	Parallel int
}

// DefaultConfig returns the study's partitioning setup.
func DefaultConfig() Config {
	return Config{
		Categories: []string{"group", "subgroupA", "subgroupB"},
		Candidates: map[string][]string{
			"group":     {"LGBT"},
			"subgroupA": {"S", "G"},
			"subgroupB": {"NB", "T", "H"},
		},
		Coefficient:          iaa.Krippendorff,
		CorrelationPrecision: 2,
	}
}

// CategoryResult holds the per-phase tables for one annotator category.
// Tables are indexed by phase (0 for phase 1); rows are labels and columns
// partition values.
type CategoryResult struct {
	Category    string
	Values      []string
	Alpha       [2]*report.Grid
	Correlation [2]*report.Grid
	PValue      [2]*report.Grid
	// Experts maps each label to the reference partition chosen for it.
	Experts [2]map[string]string
}

// Tables returns the result's grids keyed alpha_<phase>, corr_<phase> and pval_<phase>.
func (r *CategoryResult) Tables() report.Set {
	s := report.Set{}
	for i := range iaa.Phases {
		s[fmt.Sprintf("alpha_%d", i+1)] = r.Alpha[i]
		s[fmt.Sprintf("corr_%d", i+1)] = r.Correlation[i]
		s[fmt.Sprintf("pval_%d", i+1)] = r.PValue[i]
	}
	return s
}

// Engine runs the disaggregated agreement and alignment analysis.
type Engine struct {
	cfg  Config
	opts iaa.Options
}

// NewEngine returns an engine scoring with opts.
func NewEngine(cfg Config, opts iaa.Options) *Engine {
	return &Engine{cfg: cfg, opts: opts}
}

func (e *Engine) parallelism() int {
	if e.cfg.Parallel > 0 {
		return e.cfg.Parallel
	}
	return runtime.GOMAXPROCS(0)
}

// Disaggregate scores every label per partition of every configured category,
// picks the reference partition per label and correlates each partition with
// it. labelGroup selects the overrides that apply; a non-empty rowOrder
// reorders the output rows.
func (e *Engine) Disaggregate(data, attrs *dataset.Table, labels []string, labelGroup string, rowOrder []string) ([]*CategoryResult, error) {
	var out []*CategoryResult
	for _, category := range e.cfg.Categories {
		res, err := e.category(data, attrs, labels, labelGroup, category)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", category, err)
		}
		if len(rowOrder) > 0 {
			if err := res.reorder(rowOrder); err != nil {
				return nil, fmt.Errorf("category %q: %w", category, err)
			}
		}
		out = append(out, res)
	}
	return out, nil
}

func (e *Engine) category(data, attrs *dataset.Table, labels []string, labelGroup, category string) (*CategoryResult, error) {
	parts, err := Partitions(data, attrs, e.opts.RaterColumn, category)
	if err != nil {
		return nil, err
	}
	byValue := make(map[string]Partition, len(parts))
	res := &CategoryResult{Category: category}
	for _, p := range parts {
		res.Values = append(res.Values, p.Value)
		byValue[p.Value] = p
	}

	perPart := make([][2][]float64, len(parts))
	g := new(errgroup.Group)
	g.SetLimit(e.parallelism())
	for i, p := range parts {
		g.Go(func() error {
			e.opts.Logf.Emit("alignment: %s=%s has %d raters, %d rows", category, p.Value, len(p.Raters), p.Data.Len())
			var s [2][]float64
			for _, label := range labels {
				p1, p2, err := iaa.PhaseScores(p.Data, e.cfg.Coefficient, label, e.opts)
				if err != nil {
					return fmt.Errorf("partition %q: %w", p.Value, err)
				}
				s[0] = append(s[0], report.Round(p1, e.opts.Precision))
				s[1] = append(s[1], report.Round(p2, e.opts.Precision))
			}
			perPart[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// scores[phase][value][label position]
	var scores [2]map[string][]float64
	for phase := range scores {
		scores[phase] = make(map[string][]float64, len(parts))
		for i, p := range parts {
			scores[phase][p.Value] = perPart[i][phase]
		}
	}

	candidates := e.cfg.Candidates[category]
	if len(candidates) == 0 {
		candidates = res.Values
	}
	pinned, isPinned := e.cfg.Overrides.Lookup(category, labelGroup)
	if isPinned {
		if _, ok := byValue[pinned]; !ok {
			return nil, fmt.Errorf("override: %w %q", ErrUnknownPartition, pinned)
		}
	}

	for phase := range iaa.Phases {
		alpha := report.NewGrid(labels, res.Values)
		corr := report.NewGrid(labels, res.Values)
		pval := report.NewGrid(labels, res.Values)
		experts := make(map[string]string, len(labels))
		for i, label := range labels {
			expert := pinned
			if !isPinned {
				if expert, err = SelectExpert(scores[phase], i, candidates); err != nil {
					return nil, err
				}
			}
			experts[label] = expert
			column := iaa.PhaseColumn(label, phase+1)
			for _, v := range res.Values {
				if err := alpha.Set(label, v, scores[phase][v][i]); err != nil {
					return nil, err
				}
				c, err := Pearson(byValue[v].Data, byValue[expert].Data, column, e.opts.ItemColumn, e.cfg.CorrelationPrecision)
				if err != nil {
					return nil, fmt.Errorf("partition %q: %w", v, err)
				}
				c = e.cfg.SelfCorrelation.Apply(c)
				if c.Suppressed {
					e.opts.Logf.Emit("alignment: suppressed perfect correlation %s=%s on %s", category, v, column)
				}
				if err := corr.Set(label, v, c.Coefficient); err != nil {
					return nil, err
				}
				if err := pval.Set(label, v, c.PValue); err != nil {
					return nil, err
				}
			}
		}
		res.Alpha[phase], res.Correlation[phase], res.PValue[phase] = alpha, corr, pval
		res.Experts[phase] = experts
	}
	return res, nil
}

func (r *CategoryResult) reorder(order []string) error {
	for phase := range iaa.Phases {
		for _, g := range []**report.Grid{&r.Alpha[phase], &r.Correlation[phase], &r.PValue[phase]} {
			out, err := (*g).Reorder(order)
			if err != nil {
				return err
			}
			*g = out
		}
	}
	return nil
}
