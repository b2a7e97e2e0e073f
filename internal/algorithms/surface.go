// Grayscale surfaces consumed by the column kernels
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Surface is a row-major grayscale image with samples in [0, 255].
// index(x, y) = y*Width + x.
type Surface struct {
	Width  int
	Height int
	Pix    []float32
}

// NewSurface allocates a zeroed surface.
func NewSurface(width, height int) *Surface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Surface{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// SurfaceFromGray widens 8-bit luma samples to float32.
func SurfaceFromGray(width, height int, luma []uint8) (*Surface, error) {
	if len(luma) != width*height {
		return nil, fmt.Errorf("luma length %d does not match %dx%d", len(luma), width, height)
	}
	s := NewSurface(width, height)
	for i, v := range luma {
		s.Pix[i] = float32(v)
	}
	return s, nil
}

// SurfaceFromMat converts a single channel 8-bit Mat into a surface.
func SurfaceFromMat(gray gocv.Mat) (*Surface, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}
	if gray.Channels() != 1 || gray.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("expected 8-bit single channel image, got %d channels", gray.Channels())
	}
	data := gray.ToBytes()
	return SurfaceFromGray(gray.Cols(), gray.Rows(), data)
}

// Clone returns a deep copy.
func (s *Surface) Clone() *Surface {
	c := &Surface{Width: s.Width, Height: s.Height, Pix: make([]float32, len(s.Pix))}
	copy(c.Pix, s.Pix)
	return c
}

// At samples with clamp-to-edge addressing.
func (s *Surface) At(x, y int) float32 {
	return s.Pix[clampIndex(y, s.Height)*s.Width+clampIndex(x, s.Width)]
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
