package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// Accepted enumeration values.
const (
	CoefficientKrippendorff = "krippendorff"
	CoefficientFleiss       = "fleiss"

	SamplingFilter     = "filter"
	SamplingDownsample = "downsample"

	SelfCorrelationReport   = "report"
	SelfCorrelationSuppress = "suppress"

	TaxonomyTargets       = "targets-v1"
	TaxonomyOpinionsCount = "opinions-count-v0"

	DeltaOrderNone       = "none"
	DeltaOrderAscending  = "ascending"
	DeltaOrderDescending = "descending"
)

// AnalysisConfig is the root configuration for one analysis run. Every field is
// optional; the Get* methods supply defaults for anything left out, so partial
// files are safe.
type AnalysisConfig struct {
	// Dataset schema
	RaterColumn   *string `json:"rater_column,omitempty" yaml:"rater_column,omitempty"`
	ItemColumn    *string `json:"item_column,omitempty" yaml:"item_column,omitempty"`
	OrdinalMarker *string `json:"ordinal_marker,omitempty" yaml:"ordinal_marker,omitempty"`

	// Coefficients
	Coefficient          *string `json:"coefficient,omitempty" yaml:"coefficient,omitempty"`
	ScorePrecision       *int    `json:"score_precision,omitempty" yaml:"score_precision,omitempty"`
	CorrelationPrecision *int    `json:"correlation_precision,omitempty" yaml:"correlation_precision,omitempty"`
	DeltaOrder           *string `json:"delta_order,omitempty" yaml:"delta_order,omitempty"`

	// Fleiss needs a fixed number of annotations per item
	AnnotationsPerItem *int    `json:"annotations_per_item,omitempty" yaml:"annotations_per_item,omitempty"`
	FleissSampling     *string `json:"fleiss_sampling,omitempty" yaml:"fleiss_sampling,omitempty"`
	SampleSeed         *uint64 `json:"sample_seed,omitempty" yaml:"sample_seed,omitempty"`

	// Subgroup alignment
	Categories       []string                     `json:"categories,omitempty" yaml:"categories,omitempty"`
	ExpertCandidates map[string][]string          `json:"expert_candidates,omitempty" yaml:"expert_candidates,omitempty"`
	ManualExpert     map[string]map[string]string `json:"manual_expert,omitempty" yaml:"manual_expert,omitempty"`
	SelfCorrelation  *string                      `json:"self_correlation,omitempty" yaml:"self_correlation,omitempty"`

	// Categorization
	Taxonomy     *string  `json:"taxonomy,omitempty" yaml:"taxonomy,omitempty"`
	TargetGroups []string `json:"target_groups,omitempty" yaml:"target_groups,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrUint64(v uint64) *uint64 { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field set to its default.
func DefaultAnalysisConfig() *AnalysisConfig {
	c := EmptyAnalysisConfig()
	return &AnalysisConfig{
		RaterColumn:          ptrString(c.GetRaterColumn()),
		ItemColumn:           ptrString(c.GetItemColumn()),
		OrdinalMarker:        ptrString(c.GetOrdinalMarker()),
		Coefficient:          ptrString(c.GetCoefficient()),
		ScorePrecision:       ptrInt(c.GetScorePrecision()),
		CorrelationPrecision: ptrInt(c.GetCorrelationPrecision()),
		DeltaOrder:           ptrString(c.GetDeltaOrder()),
		AnnotationsPerItem:   ptrInt(c.GetAnnotationsPerItem()),
		FleissSampling:       ptrString(c.GetFleissSampling()),
		SampleSeed:           ptrUint64(c.GetSampleSeed()),
		Categories:           c.GetCategories(),
		ExpertCandidates:     c.GetExpertCandidates(),
		ManualExpert:         c.GetManualExpert(),
		SelfCorrelation:      ptrString(c.GetSelfCorrelation()),
		Taxonomy:             ptrString(c.GetTaxonomy()),
		TargetGroups:         c.GetTargetGroups(),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON or YAML file.
// The file is validated to ensure it has a .json, .yaml or .yml extension and
// is under the max file size.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	var unmarshal func([]byte, any) error
	switch ext := filepath.Ext(cleanPath); ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Ext(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func oneOf(field string, v *string, allowed ...string) error {
	if v == nil || slices.Contains(allowed, *v) {
		return nil
	}
	return fmt.Errorf("%s must be one of %v, got %q", field, allowed, *v)
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if err := oneOf("coefficient", c.Coefficient, CoefficientKrippendorff, CoefficientFleiss); err != nil {
		return err
	}
	if err := oneOf("fleiss_sampling", c.FleissSampling, SamplingFilter, SamplingDownsample); err != nil {
		return err
	}
	if err := oneOf("self_correlation", c.SelfCorrelation, SelfCorrelationReport, SelfCorrelationSuppress); err != nil {
		return err
	}
	if err := oneOf("taxonomy", c.Taxonomy, TaxonomyTargets, TaxonomyOpinionsCount); err != nil {
		return err
	}
	if err := oneOf("delta_order", c.DeltaOrder, DeltaOrderNone, DeltaOrderAscending, DeltaOrderDescending); err != nil {
		return err
	}

	for name, p := range map[string]*int{"score_precision": c.ScorePrecision, "correlation_precision": c.CorrelationPrecision} {
		if p != nil && (*p < 0 || *p > 10) {
			return fmt.Errorf("%s must be between 0 and 10, got %d", name, *p)
		}
	}
	if c.AnnotationsPerItem != nil && *c.AnnotationsPerItem < 2 {
		return fmt.Errorf("annotations_per_item must be at least 2, got %d", *c.AnnotationsPerItem)
	}
	for _, p := range []*string{c.RaterColumn, c.ItemColumn} {
		if p != nil && *p == "" {
			return fmt.Errorf("rater_column and item_column must not be empty")
		}
	}

	categories := c.GetCategories()
	for category, candidates := range c.ExpertCandidates {
		if !slices.Contains(categories, category) {
			return fmt.Errorf("expert_candidates: unknown category %q", category)
		}
		if len(candidates) == 0 {
			return fmt.Errorf("expert_candidates: category %q has no candidates", category)
		}
	}
	for category, byGroup := range c.ManualExpert {
		if !slices.Contains(categories, category) {
			return fmt.Errorf("manual_expert: unknown category %q", category)
		}
		for group, value := range byGroup {
			if value == "" {
				return fmt.Errorf("manual_expert: empty override for %s/%s", category, group)
			}
		}
	}
	return nil
}

// GetRaterColumn returns the rater id column or the default.
func (c *AnalysisConfig) GetRaterColumn() string {
	if c.RaterColumn == nil {
		return "User"
	}
	return *c.RaterColumn
}

// GetItemColumn returns the item id column or the default.
func (c *AnalysisConfig) GetItemColumn() string {
	if c.ItemColumn == nil {
		return "Question ID"
	}
	return *c.ItemColumn
}

// GetOrdinalMarker returns the column-name marker for ordinal ratings or the default.
func (c *AnalysisConfig) GetOrdinalMarker() string {
	if c.OrdinalMarker == nil {
		return "_bin"
	}
	return *c.OrdinalMarker
}

// GetCoefficient returns the agreement coefficient or the default.
func (c *AnalysisConfig) GetCoefficient() string {
	if c.Coefficient == nil {
		return CoefficientKrippendorff
	}
	return *c.Coefficient
}

// GetScorePrecision returns the decimals kept for agreement scores.
func (c *AnalysisConfig) GetScorePrecision() int {
	if c.ScorePrecision == nil {
		return 3
	}
	return *c.ScorePrecision
}

// GetCorrelationPrecision returns the decimals kept for correlations.
func (c *AnalysisConfig) GetCorrelationPrecision() int {
	if c.CorrelationPrecision == nil {
		return 2
	}
	return *c.CorrelationPrecision
}

// GetDeltaOrder returns how aggregator tables are sorted when no reference
// order is supplied.
func (c *AnalysisConfig) GetDeltaOrder() string {
	if c.DeltaOrder == nil {
		return DeltaOrderDescending
	}
	return *c.DeltaOrder
}

// GetAnnotationsPerItem returns the fixed annotation count required by Fleiss' kappa.
func (c *AnalysisConfig) GetAnnotationsPerItem() int {
	if c.AnnotationsPerItem == nil {
		return 6
	}
	return *c.AnnotationsPerItem
}

// GetFleissSampling returns how items are brought to the fixed annotation count.
func (c *AnalysisConfig) GetFleissSampling() string {
	if c.FleissSampling == nil {
		return SamplingFilter
	}
	return *c.FleissSampling
}

// GetSampleSeed returns the downsampling seed or the default.
func (c *AnalysisConfig) GetSampleSeed() uint64 {
	if c.SampleSeed == nil {
		return 1
	}
	return *c.SampleSeed
}

// GetCategories returns the annotator attribute categories used for partitioning.
func (c *AnalysisConfig) GetCategories() []string {
	if len(c.Categories) == 0 {
		return []string{"group", "subgroupA", "subgroupB"}
	}
	return slices.Clone(c.Categories)
}

// GetExpertCandidates returns, per category, the partition values eligible to
// be the reference, in tie-break order.
func (c *AnalysisConfig) GetExpertCandidates() map[string][]string {
	if len(c.ExpertCandidates) == 0 {
		return map[string][]string{
			"group":     {"LGBT"},
			"subgroupA": {"S", "G"},
			"subgroupB": {"NB", "T", "H"},
		}
	}
	out := make(map[string][]string, len(c.ExpertCandidates))
	for k, v := range c.ExpertCandidates {
		out[k] = slices.Clone(v)
	}
	return out
}

// GetManualExpert returns the pinned reference values (category -> label
// group -> value). Empty by default.
func (c *AnalysisConfig) GetManualExpert() map[string]map[string]string {
	out := make(map[string]map[string]string, len(c.ManualExpert))
	for k, v := range c.ManualExpert {
		out[k] = maps.Clone(v)
	}
	return out
}

// GetSelfCorrelation returns how a perfect self-correlation is reported.
func (c *AnalysisConfig) GetSelfCorrelation() string {
	if c.SelfCorrelation == nil {
		return SelfCorrelationReport
	}
	return *c.SelfCorrelation
}

// GetTaxonomy returns the disagreement taxonomy version.
func (c *AnalysisConfig) GetTaxonomy() string {
	if c.Taxonomy == nil {
		return TaxonomyTargets
	}
	return *c.Taxonomy
}

// GetTargetGroups returns the demographic label groups under study.
func (c *AnalysisConfig) GetTargetGroups() []string {
	if len(c.TargetGroups) == 0 {
		return []string{"gender", "sexuality"}
	}
	return slices.Clone(c.TargetGroups)
}
