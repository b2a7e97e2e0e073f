package gui

import "math"

// fit maps between widget space and image space for an image drawn with
// contain fill: scaled uniformly and centered.
type fit struct {
	scale   float64
	offsetX float64
	offsetY float64
	width   float64
	height  float64
}

func containFit(areaW, areaH float64, imageW, imageH int) fit {
	if imageW <= 0 || imageH <= 0 || areaW <= 0 || areaH <= 0 {
		return fit{}
	}
	scale := math.Min(areaW/float64(imageW), areaH/float64(imageH))
	w, h := float64(imageW)*scale, float64(imageH)*scale
	return fit{
		scale:   scale,
		offsetX: (areaW - w) / 2,
		offsetY: (areaH - h) / 2,
		width:   w,
		height:  h,
	}
}

// ratioAt converts a widget x coordinate into a column ratio in [0,1].
func (f fit) ratioAt(x float64) float32 {
	if f.width <= 0 {
		return 0
	}
	r := (x - f.offsetX) / f.width
	return float32(math.Max(0, math.Min(1, r)))
}

// xAt converts a column ratio into a widget x coordinate.
func (f fit) xAt(ratio float32) float64 {
	return f.offsetX + float64(ratio)*f.width
}
