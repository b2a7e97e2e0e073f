package algorithms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantSurface(w, h int, v float32) *Surface {
	s := NewSurface(w, h)
	for i := range s.Pix {
		s.Pix[i] = v
	}
	return s
}

func TestEnsureOdd(t *testing.T) {
	for k := -3; k <= 40; k++ {
		got := EnsureOdd(k)
		assert.Equal(t, 1, got%2, "k=%d", k)
		if k <= 0 {
			assert.Equal(t, 1, got)
			continue
		}
		assert.Contains(t, []int{k, k + 1}, got, "k=%d", k)
	}
}

func TestApplyGamma(t *testing.T) {
	src := NewSurface(4, 1)
	copy(src.Pix, []float32{-10, 64, 128, 300})

	t.Run("identity clamps", func(t *testing.T) {
		out := ApplyGamma(src, 1)
		assert.Equal(t, []float32{0, 64, 128, 255}, out.Pix)
	})

	t.Run("lut", func(t *testing.T) {
		out := ApplyGamma(src, 2)
		want := float32(math.Pow(64.0/255.0, 0.5) * 255.0)
		assert.InDelta(t, want, out.Pix[1], 1e-4)
		assert.InDelta(t, 0, out.Pix[0], 1e-6)
		assert.InDelta(t, 255, out.Pix[3], 1e-4)
	})

	t.Run("non-positive gamma is identity lut", func(t *testing.T) {
		out := ApplyGamma(src, 0)
		assert.InDelta(t, 64, out.Pix[1], 1e-4)
	})

	assert.Equal(t, float32(64), src.Pix[1], "source must not change")
}

func TestGaussianKernel(t *testing.T) {
	for _, k := range []int{1, 3, 5, 7, 15} {
		w := GaussianKernel(k)
		require.Len(t, w, k)
		var sum float64
		for i := range w {
			sum += float64(w[i])
			assert.InDelta(t, w[i], w[len(w)-1-i], 1e-7, "symmetric")
		}
		assert.InDelta(t, 1, sum, 1e-5)
	}
	assert.Len(t, GaussianKernel(4), 5)
}

func TestGaussianBlurPreservesConstant(t *testing.T) {
	out := GaussianBlur(constantSurface(17, 9, 200), 5)
	for _, v := range out.Pix {
		assert.InDelta(t, 200, v, 1e-3)
	}
}

func TestGaussianBlurSmoothsStep(t *testing.T) {
	s := NewSurface(20, 3)
	for y := 0; y < 3; y++ {
		for x := 10; x < 20; x++ {
			s.Pix[y*20+x] = 255
		}
	}
	out := GaussianBlur(s, 5)
	assert.Greater(t, out.Pix[9], float32(0))
	assert.Less(t, out.Pix[10], float32(255))
	assert.InDelta(t, 0, out.Pix[0], 1e-4)
	assert.InDelta(t, 255, out.Pix[19], 1e-3)
}

func TestSobelMagnitude(t *testing.T) {
	flat := SobelMagnitude(constantSurface(8, 8, 90))
	for _, v := range flat.Pix {
		assert.InDelta(t, 0, v, 1e-6)
	}

	step := NewSurface(8, 5)
	for y := 0; y < 5; y++ {
		for x := 4; x < 8; x++ {
			step.Pix[y*8+x] = 100
		}
	}
	out := SobelMagnitude(step)
	// Vertical edge between columns 3 and 4: |gx| = (1+2+1)*100.
	assert.InDelta(t, 400, out.At(3, 2), 1e-3)
	assert.InDelta(t, 400, out.At(4, 2), 1e-3)
	assert.InDelta(t, 0, out.At(0, 2), 1e-6)
	assert.InDelta(t, 0, out.At(7, 2), 1e-6)
}
