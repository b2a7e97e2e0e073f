package manual

import (
	"image"
	"math"
)

// DefaultGutterRatio is the gutter width used for recommended lines.
const DefaultGutterRatio = 0.02

// Line indices.
const (
	LeftTrim = iota
	LeftPageEnd
	RightPageStart
	RightTrim
)

// RecommendedLines centers a gutter of DefaultGutterRatio on splitRatio.
func RecommendedLines(splitRatio float32) [4]float32 {
	half := float32(DefaultGutterRatio / 2)
	ratios, _ := NormalizeLines([4]float32{0, splitRatio - half, splitRatio + half, 1}, 0)
	return ratios
}

// NormalizeLines clamps each ratio into [0,1], forces the four lines to be
// non-decreasing and converts them to pixel columns of an image width
// pixels wide. Pixels are rounded half to even and never exceed width.
func NormalizeLines(lines [4]float32, width int) ([4]float32, [4]int) {
	var ratios [4]float32
	for i, v := range lines {
		if math.IsNaN(float64(v)) || v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		if i > 0 && v < ratios[i-1] {
			v = ratios[i-1]
		}
		ratios[i] = v
	}

	var pixels [4]int
	if width <= 0 {
		return ratios, pixels
	}
	for i, r := range ratios {
		px := int(math.RoundToEven(float64(r) * float64(width)))
		if px > width {
			px = width
		}
		if i > 0 && px < pixels[i-1] {
			px = pixels[i-1]
		}
		pixels[i] = px
	}
	return ratios, pixels
}

// contentCrops returns the right and left page columns. ok is false when
// either page is empty.
func contentCrops(px [4]int, height int) (right, left image.Rectangle, ok bool) {
	if px[LeftPageEnd] <= px[LeftTrim] || px[RightTrim] <= px[RightPageStart] {
		return image.Rectangle{}, image.Rectangle{}, false
	}
	left = image.Rect(px[LeftTrim], 0, px[LeftPageEnd], height)
	right = image.Rect(px[RightPageStart], 0, px[RightTrim], height)
	return right, left, true
}

// singleCrop returns the trimmed columns of a cover or spread. A collapsed
// trim is widened by DefaultGutterRatio of the width; ok is false when the
// crop is still empty.
func singleCrop(px [4]int, width, height int) (image.Rectangle, [4]int, bool) {
	if px[RightTrim] <= px[LeftTrim] {
		grow := int(math.RoundToEven(DefaultGutterRatio * float64(width)))
		px[RightTrim] = min(px[LeftTrim]+grow, width)
	}
	if px[RightTrim] <= px[LeftTrim] {
		return image.Rectangle{}, px, false
	}
	return image.Rect(px[LeftTrim], 0, px[RightTrim], height), px, true
}
