package study

import (
	"github.com/banshee-data/agreement.report/internal/alignment"
	"github.com/banshee-data/agreement.report/internal/config"
	"github.com/banshee-data/agreement.report/internal/iaa"
	"github.com/banshee-data/agreement.report/internal/monitoring"
)

// scoreOptions maps the analysis config onto aggregator options.
func scoreOptions(cfg *config.AnalysisConfig, logf monitoring.LogFunc) iaa.Options {
	return iaa.Options{
		RaterColumn:        cfg.GetRaterColumn(),
		ItemColumn:         cfg.GetItemColumn(),
		OrdinalMarker:      cfg.GetOrdinalMarker(),
		Precision:          cfg.GetScorePrecision(),
		AnnotationsPerItem: cfg.GetAnnotationsPerItem(),
		Downsample:         cfg.GetFleissSampling() == config.SamplingDownsample,
		SampleSeed:         cfg.GetSampleSeed(),
		Logf:               logf,
	}
}

func ordering(cfg *config.AnalysisConfig, reference []string) iaa.Ordering {
	o := iaa.Ordering{Reference: reference}
	switch cfg.GetDeltaOrder() {
	case config.DeltaOrderAscending:
		o.ByDelta = iaa.Ascending
	case config.DeltaOrderDescending:
		o.ByDelta = iaa.Descending
	}
	return o
}

// alignmentConfig maps the analysis config onto the subgroup engine. Subgroup
// agreement is always Krippendorff's alpha: partitions rarely keep a fixed
// number of annotations per item.
func alignmentConfig(cfg *config.AnalysisConfig) alignment.Config {
	policy := alignment.ReportSelfCorrelation
	if cfg.GetSelfCorrelation() == config.SelfCorrelationSuppress {
		policy = alignment.SuppressSelfCorrelation
	}
	return alignment.Config{
		Categories:           cfg.GetCategories(),
		Candidates:           cfg.GetExpertCandidates(),
		Overrides:            alignment.Overrides(cfg.GetManualExpert()),
		SelfCorrelation:      policy,
		Coefficient:          iaa.Krippendorff,
		CorrelationPrecision: cfg.GetCorrelationPrecision(),
	}
}
