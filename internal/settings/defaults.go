package settings

import (
	"fmt"

	"dario.cat/mergo"
)

// DefaultsProvider builds the document used when the local file cannot be loaded.
type DefaultsProvider func() RawConfig

// Defaults returns the built-in document with trading, evolution and risk sections.
func Defaults() RawConfig {
	return RawConfig{
		SectionTrading:   toRaw(DefaultTradingSettings()),
		SectionEvolution: toRaw(DefaultEvolutionSettings()),
		SectionRisk:      toRaw(DefaultRiskSettings()),
	}
}

// Merge deep-merges overlay onto a copy of base. Values from overlay win,
// including zero values; nested objects are merged key by key.
func Merge(base, overlay RawConfig) (RawConfig, error) {
	dst := base.Clone()
	if dst == nil {
		dst = RawConfig{}
	}
	if len(overlay) == 0 {
		return dst, nil
	}
	if err := mergo.Merge(&dst, overlay.Clone(), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge configuration: %w", err)
	}
	return dst, nil
}
