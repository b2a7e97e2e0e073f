package core

import "fmt"

// Thresholds gate the page decision.
type Thresholds struct {
	MinAspectRatio       float64 `yaml:"min_aspect_ratio" json:"minAspectRatio"`
	MinForegroundRatio   float64 `yaml:"min_foreground_ratio" json:"minForegroundRatio"`
	CoverContentRatio    float64 `yaml:"cover_content_ratio" json:"coverContentRatio"`
	CoverHeightRatio     float64 `yaml:"cover_height_ratio" json:"coverHeightRatio"`
	ConfidenceThreshold  float64 `yaml:"confidence_threshold" json:"confidenceThreshold"`
	MaxCenterOffsetRatio float64 `yaml:"max_center_offset_ratio" json:"maxCenterOffsetRatio"`
	PaddingRatio         float64 `yaml:"padding_ratio" json:"paddingRatio"`
	EdgeExclusionRatio   float64 `yaml:"edge_exclusion_ratio" json:"edgeExclusionRatio"`
}

// DefaultThresholds returns the stock decision thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAspectRatio:       1.2,
		MinForegroundRatio:   0.01,
		CoverContentRatio:    0.45,
		CoverHeightRatio:     0.8,
		ConfidenceThreshold:  0.1,
		MaxCenterOffsetRatio: 0.05,
		PaddingRatio:         0.01,
		EdgeExclusionRatio:   0.05,
	}
}

// Validate rejects ratios outside [0, 1] and a non-positive aspect gate.
func (t Thresholds) Validate() error {
	if t.MinAspectRatio <= 0 {
		return fmt.Errorf("min_aspect_ratio must be positive, got %v", t.MinAspectRatio)
	}
	for name, v := range map[string]float64{
		"min_foreground_ratio":    t.MinForegroundRatio,
		"cover_content_ratio":     t.CoverContentRatio,
		"cover_height_ratio":      t.CoverHeightRatio,
		"confidence_threshold":    t.ConfidenceThreshold,
		"max_center_offset_ratio": t.MaxCenterOffsetRatio,
		"padding_ratio":           t.PaddingRatio,
		"edge_exclusion_ratio":    t.EdgeExclusionRatio,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	return nil
}
