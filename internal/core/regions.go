// Crop regions: padding, clamping and extraction
package core

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Padding returns the per-axis padding for a frame, rounded up.
func Padding(width, height int, ratio float64) (int, int) {
	return int(math.Ceil(float64(width) * ratio)), int(math.Ceil(float64(height) * ratio))
}

// PadAndClamp grows r by (padX, padY) on every side and clamps it to the
// width x height frame.
func PadAndClamp(r image.Rectangle, padX, padY, width, height int) image.Rectangle {
	grown := image.Rect(r.Min.X-padX, r.Min.Y-padY, r.Max.X+padX, r.Max.Y+padY)
	return grown.Intersect(image.Rect(0, 0, width, height))
}

// Crop copies the region of src into a new Mat owned by the caller.
func Crop(src gocv.Mat, r image.Rectangle) gocv.Mat {
	frame := image.Rect(0, 0, src.Cols(), src.Rows())
	r = r.Intersect(frame)
	if r.Empty() {
		return gocv.NewMat()
	}
	region := src.Region(r)
	defer region.Close()
	return region.Clone()
}

// BoxMetadata renders a rectangle the way reports record bounding boxes.
func BoxMetadata(r image.Rectangle) map[string]int {
	return map[string]int{
		"x":      r.Min.X,
		"y":      r.Min.Y,
		"width":  r.Dx(),
		"height": r.Dy(),
	}
}
