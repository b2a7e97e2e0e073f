package core

import (
	"image"
)

// Skip reasons recorded in reports.
const (
	ReasonAspectRatio  = "aspect_ratio"
	ReasonMaskError    = "mask_error"
	ReasonNoForeground = "no_foreground"
	ReasonDecodeError  = "decode_error"
)

// ProcessResult is the decision for one page: *Skip, *CoverTrim or *Split.
type ProcessResult interface {
	Metadata() map[string]any
	isProcessResult()
}

// Skip leaves the page untouched.
type Skip struct {
	Reason string
	Meta   map[string]any
}

// CoverTrim crops a cover or splash page to its padded foreground box.
type CoverTrim struct {
	Crop              image.Rectangle
	ContentWidthRatio float64
	Meta              map[string]any
}

// Split cuts a spread into a right page and a left page. Fallback marks a
// split forced to the frame center.
type Split struct {
	Right             image.Rectangle
	Left              image.Rectangle
	SplitX            int
	Confidence        float64
	ContentWidthRatio float64
	Fallback          bool
	Meta              map[string]any
}

func (s *Skip) Metadata() map[string]any      { return s.Meta }
func (c *CoverTrim) Metadata() map[string]any { return c.Meta }
func (s *Split) Metadata() map[string]any     { return s.Meta }

func (*Skip) isProcessResult()      {}
func (*CoverTrim) isProcessResult() {}
func (*Split) isProcessResult()     {}
