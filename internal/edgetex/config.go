package edgetex

import (
	"fmt"
)

// Config tunes the edge-texture analyzer. Every field can be overridden
// from the YAML configuration file.
type Config struct {
	Gamma                float32    `yaml:"gamma" json:"gamma"`
	GaussianKernel       int        `yaml:"gaussian_kernel" json:"gaussianKernel"`
	EntropyWindow        int        `yaml:"entropy_window" json:"entropyWindow"`
	EntropyBins          int        `yaml:"entropy_bins" json:"entropyBins"`
	WhiteThreshold       float32    `yaml:"white_threshold" json:"whiteThreshold"`
	BrightnessThresholds [2]float32 `yaml:"brightness_thresholds" json:"brightnessThresholds"`
	BrightnessWeight     float32    `yaml:"brightness_weight" json:"brightnessWeight"`
	EnableDualBrightness bool       `yaml:"enable_dual_brightness" json:"enableDualBrightness"`
	LeftSearchRatio      float32    `yaml:"left_search_ratio" json:"leftSearchRatio"`
	RightSearchRatio     float32    `yaml:"right_search_ratio" json:"rightSearchRatio"`
	CenterSearchRatio    float32    `yaml:"center_search_ratio" json:"centerSearchRatio"`
	MinMarginRatio       float32    `yaml:"min_margin_ratio" json:"minMarginRatio"`
	CenterMaxRatio       float32    `yaml:"center_max_ratio" json:"centerMaxRatio"`
	ScoreWeights         [3]float32 `yaml:"score_weights" json:"scoreWeights"`
}

// DefaultConfig returns the stock analyzer settings.
func DefaultConfig() Config {
	return Config{
		Gamma:                1.0,
		GaussianKernel:       5,
		EntropyWindow:        15,
		EntropyBins:          32,
		WhiteThreshold:       0.45,
		BrightnessThresholds: [2]float32{200, 40},
		BrightnessWeight:     0.4,
		EnableDualBrightness: true,
		LeftSearchRatio:      0.18,
		RightSearchRatio:     0.18,
		CenterSearchRatio:    0.30,
		MinMarginRatio:       0.025,
		CenterMaxRatio:       0.06,
		ScoreWeights:         [3]float32{0.4, 0.35, 0.25},
	}
}

// BrightMin is the lowest mean intensity classified as a bright column.
func (c Config) BrightMin() float32 { return c.BrightnessThresholds[0] }

// DarkMax is the highest mean intensity classified as a dark column.
func (c Config) DarkMax() float32 { return c.BrightnessThresholds[1] }

// Validate rejects settings the analyzer cannot work with.
func (c Config) Validate() error {
	for name, r := range map[string]float32{
		"left_search_ratio":   c.LeftSearchRatio,
		"right_search_ratio":  c.RightSearchRatio,
		"center_search_ratio": c.CenterSearchRatio,
		"min_margin_ratio":    c.MinMarginRatio,
		"center_max_ratio":    c.CenterMaxRatio,
		"brightness_weight":   c.BrightnessWeight,
	} {
		if r < 0 || r > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, r)
		}
	}
	if c.WhiteThreshold < 0 {
		return fmt.Errorf("white_threshold must not be negative")
	}
	if c.DarkMax() > c.BrightMin() {
		return fmt.Errorf("brightness_thresholds: dark max %v exceeds bright min %v", c.DarkMax(), c.BrightMin())
	}
	return nil
}
