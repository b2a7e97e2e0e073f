// Foreground mask construction: blur, CLAHE, Otsu inverse threshold, open and close
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// MaskParams controls the foreground mask pipeline.
type MaskParams struct {
	BlurKernel  int
	ClipLimit   float64
	TileGrid    int
	MorphKernel int
}

// DefaultMaskParams returns the 5x5 blur, CLAHE 2.0 over 8x8 tiles and 5x5
// rectangular open/close used for page analysis.
func DefaultMaskParams() MaskParams {
	return MaskParams{
		BlurKernel:  5,
		ClipLimit:   2.0,
		TileGrid:    8,
		MorphKernel: 5,
	}
}

// ForegroundMask is a binary mask with values {0, 255}.
type ForegroundMask struct {
	Width  int
	Height int
	Pix    []uint8
	Count  int
	// Projection holds the number of foreground pixels in every column.
	Projection []float64
	// Threshold is the level Otsu picked on the equalized image.
	Threshold float32
}

// Ratio is the foreground pixel share of the frame.
func (m *ForegroundMask) Ratio() float64 {
	if m.Width == 0 || m.Height == 0 {
		return 0
	}
	return float64(m.Count) / float64(m.Width*m.Height)
}

// Bounds returns the half-open envelope of all foreground pixels.
func (m *ForegroundMask) Bounds() (image.Rectangle, bool) {
	return m.BoundsWithin(0, m.Width)
}

// BoundsWithin returns the envelope of foreground pixels whose column lies
// in [x0, x1).
func (m *ForegroundMask) BoundsWithin(x0, x1 int) (image.Rectangle, bool) {
	if x0 < 0 {
		x0 = 0
	}
	if x1 > m.Width {
		x1 = m.Width
	}
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x := x0; x < x1; x++ {
			if row[x] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// GrayscaleMat converts a 1, 3 or 4 channel 8-bit image into a new single
// channel Mat owned by the caller.
func GrayscaleMat(src gocv.Mat) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	gray := gocv.NewMat()
	switch src.Channels() {
	case 1:
		src.CopyTo(&gray)
	case 3:
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)
	default:
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
	if gray.Type() != gocv.MatTypeCV8U {
		converted := gocv.NewMat()
		gray.ConvertTo(&converted, gocv.MatTypeCV8U)
		gray.Close()
		gray = converted
	}
	return gray, nil
}

// BuildForegroundMask runs the mask pipeline over a grayscale image.
func BuildForegroundMask(gray gocv.Mat, params MaskParams) (*ForegroundMask, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}
	if gray.Channels() != 1 {
		return nil, fmt.Errorf("mask expects a single channel image, got %d", gray.Channels())
	}

	blurK := EnsureOdd(params.BlurKernel)
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurK, blurK), 0, 0, gocv.BorderReplicate)

	tile := params.TileGrid
	if tile < 1 {
		tile = 1
	}
	clahe := gocv.NewCLAHEWithParams(params.ClipLimit, image.Pt(tile, tile))
	defer clahe.Close()
	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(blurred, &equalized)

	binary := gocv.NewMat()
	defer binary.Close()
	thresh := gocv.Threshold(equalized, &binary, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)

	morphK := EnsureOdd(params.MorphKernel)
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(morphK, morphK))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(binary, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	if closed.Empty() || closed.Cols() != gray.Cols() || closed.Rows() != gray.Rows() {
		return nil, fmt.Errorf("mask pipeline produced an invalid image")
	}

	colSums := gocv.NewMat()
	defer colSums.Close()
	gocv.Reduce(closed, &colSums, 0, gocv.ReduceSum, gocv.MatTypeCV32F)

	mask := &ForegroundMask{
		Width:      closed.Cols(),
		Height:     closed.Rows(),
		Pix:        closed.ToBytes(),
		Count:      gocv.CountNonZero(closed),
		Projection: make([]float64, closed.Cols()),
		Threshold:  thresh,
	}
	for x := range mask.Projection {
		mask.Projection[x] = float64(colSums.GetFloatAt(0, x)) / 255.0
	}
	return mask, nil
}
