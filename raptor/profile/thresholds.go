package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DepthBands are the upper bounds of the depth_category buckets, applied to
// mean library size: below VeryLow → very_low, below Low → low, below
// Medium → medium, below High → high, otherwise very_high.
type DepthBands struct {
	VeryLow float64
	Low     float64
	Medium  float64
	High    float64
}

// BCVBands are the upper bounds of the bcv_category buckets: below Low →
// low, below Medium → medium, below High → high, otherwise very_high.
type BCVBands struct {
	Low    float64
	Medium float64
	High   float64
}

// Thresholds collects every tunable cut point used by the profiler. The
// defaults are stable across runs; a YAML config may override them.
type Thresholds struct {
	Depth DepthBands
	BCV   BCVBands

	// Gene expression classification bounds (mean count per gene).
	LowExpression  float64
	HighExpression float64

	// Quality-flag triggers.
	ZeroInflationWarn float64 // fraction of zero entries
	LibraryCVWarn     float64 // library size CV
	MinSamples        int     // fewer samples than this raises a flag
	OutlierZ          float64 // |z| on PC1 beyond which a sample is an outlier
}

// DefaultThresholds returns the documented default cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Depth: DepthBands{
			VeryLow: 1e6,
			Low:     5e6,
			Medium:  2e7,
			High:    5e7,
		},
		BCV: BCVBands{
			Low:    0.2,
			Medium: 0.4,
			High:   0.6,
		},
		LowExpression:     10,
		HighExpression:    100,
		ZeroInflationWarn: 0.5,
		LibraryCVWarn:     0.5,
		MinSamples:        3,
		OutlierZ:          3,
	}
}

func (t Thresholds) depthCategory(meanDepth float64) DepthCategory {
	switch {
	case meanDepth < t.Depth.VeryLow:
		return DepthVeryLow
	case meanDepth < t.Depth.Low:
		return DepthLow
	case meanDepth < t.Depth.Medium:
		return DepthMedium
	case meanDepth < t.Depth.High:
		return DepthHigh
	default:
		return DepthVeryHigh
	}
}

func (t Thresholds) bcvCategory(bcv float64) BCVCategory {
	switch {
	case bcv < t.BCV.Low:
		return BCVLow
	case bcv < t.BCV.Medium:
		return BCVMedium
	case bcv < t.BCV.High:
		return BCVHigh
	default:
		return BCVVeryHigh
	}
}

// thresholdsFile is the YAML configuration layout. Absent fields keep their
// defaults.
type thresholdsFile struct {
	Profiling struct {
		DepthThresholds *struct {
			VeryLow *float64 `yaml:"very_low"`
			Low     *float64 `yaml:"low"`
			Medium  *float64 `yaml:"medium"`
			High    *float64 `yaml:"high"`
		} `yaml:"depth_thresholds"`
		BCVThresholds *struct {
			Low    *float64 `yaml:"low"`
			Medium *float64 `yaml:"medium"`
			High   *float64 `yaml:"high"`
		} `yaml:"bcv_thresholds"`
		LowExpression     *float64 `yaml:"low_expression"`
		HighExpression    *float64 `yaml:"high_expression"`
		ZeroInflationWarn *float64 `yaml:"zero_inflation_warn"`
		LibraryCVWarn     *float64 `yaml:"library_cv_warn"`
		MinSamples        *int     `yaml:"min_samples"`
		OutlierZ          *float64 `yaml:"outlier_zscore"`
	} `yaml:"profiling"`
}

// LoadThresholds reads a YAML config and applies its overrides on top of the
// defaults.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()

	raw, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("open thresholds config: %w", err)
	}
	var cfg thresholdsFile
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return th, fmt.Errorf("parse thresholds config %s: %w", path, err)
	}

	p := cfg.Profiling
	if p.DepthThresholds != nil {
		applyFloat(&th.Depth.VeryLow, p.DepthThresholds.VeryLow)
		applyFloat(&th.Depth.Low, p.DepthThresholds.Low)
		applyFloat(&th.Depth.Medium, p.DepthThresholds.Medium)
		applyFloat(&th.Depth.High, p.DepthThresholds.High)
	}
	if p.BCVThresholds != nil {
		applyFloat(&th.BCV.Low, p.BCVThresholds.Low)
		applyFloat(&th.BCV.Medium, p.BCVThresholds.Medium)
		applyFloat(&th.BCV.High, p.BCVThresholds.High)
	}
	applyFloat(&th.LowExpression, p.LowExpression)
	applyFloat(&th.HighExpression, p.HighExpression)
	applyFloat(&th.ZeroInflationWarn, p.ZeroInflationWarn)
	applyFloat(&th.LibraryCVWarn, p.LibraryCVWarn)
	if p.MinSamples != nil {
		th.MinSamples = *p.MinSamples
	}
	applyFloat(&th.OutlierZ, p.OutlierZ)

	if err := th.validate(); err != nil {
		return DefaultThresholds(), fmt.Errorf("thresholds config %s: %w", path, err)
	}
	return th, nil
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func (t Thresholds) validate() error {
	if !(t.Depth.VeryLow < t.Depth.Low && t.Depth.Low < t.Depth.Medium && t.Depth.Medium < t.Depth.High) {
		return fmt.Errorf("depth thresholds must be strictly increasing: %v", t.Depth)
	}
	if !(t.BCV.Low < t.BCV.Medium && t.BCV.Medium < t.BCV.High) {
		return fmt.Errorf("bcv thresholds must be strictly increasing: %v", t.BCV)
	}
	if t.MinSamples < 1 {
		return fmt.Errorf("min_samples must be >= 1, got %d", t.MinSamples)
	}
	if t.OutlierZ <= 0 {
		return fmt.Errorf("outlier_zscore must be > 0, got %g", t.OutlierZ)
	}
	return nil
}
