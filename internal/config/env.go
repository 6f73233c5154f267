package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes the environment variables read by ApplyEnv, e.g.
// AGREEMENT_COEFFICIENT=fleiss.
const EnvPrefix = "AGREEMENT"

// envOverrides lists the settings that may be switched per run without
// editing the config file. Unset variables leave the pointer nil.
type envOverrides struct {
	Coefficient        *string `envconfig:"COEFFICIENT"`
	DeltaOrder         *string `envconfig:"DELTA_ORDER"`
	AnnotationsPerItem *int    `envconfig:"ANNOTATIONS_PER_ITEM"`
	FleissSampling     *string `envconfig:"FLEISS_SAMPLING"`
	SampleSeed         *uint64 `envconfig:"SAMPLE_SEED"`
	SelfCorrelation    *string `envconfig:"SELF_CORRELATION"`
	Taxonomy           *string `envconfig:"TAXONOMY"`
}

// ApplyEnv overrides fields from <prefix>_* environment variables and
// validates the result. An empty prefix uses EnvPrefix.
func (c *AnalysisConfig) ApplyEnv(prefix string) error {
	if prefix == "" {
		prefix = EnvPrefix
	}
	var env envOverrides
	if err := envconfig.Process(prefix, &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if env.Coefficient != nil {
		c.Coefficient = env.Coefficient
	}
	if env.DeltaOrder != nil {
		c.DeltaOrder = env.DeltaOrder
	}
	if env.AnnotationsPerItem != nil {
		c.AnnotationsPerItem = env.AnnotationsPerItem
	}
	if env.FleissSampling != nil {
		c.FleissSampling = env.FleissSampling
	}
	if env.SampleSeed != nil {
		c.SampleSeed = env.SampleSeed
	}
	if env.SelfCorrelation != nil {
		c.SelfCorrelation = env.SelfCorrelation
	}
	if env.Taxonomy != nil {
		c.Taxonomy = env.Taxonomy
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}
