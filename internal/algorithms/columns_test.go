package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnMeanIntensity(t *testing.T) {
	s := NewSurface(3, 2)
	copy(s.Pix, []float32{0, 100, 255, 50, 100, 255})
	assert.Equal(t, []float32{25, 100, 255}, ColumnMeanIntensity(s))

	empty := NewSurface(4, 0)
	assert.Equal(t, []float32{0, 0, 0, 0}, ColumnMeanIntensity(empty))
}

func TestColumnGradStats(t *testing.T) {
	s := NewSurface(2, 4)
	copy(s.Pix, []float32{
		1, 5,
		3, 5,
		1, 5,
		3, 5,
	})
	mean, variance := ColumnGradStats(s)
	assert.InDeltaSlice(t, []float32{2, 5}, mean, 1e-6)
	assert.InDeltaSlice(t, []float32{1, 0}, variance, 1e-6)
}

func TestEntropyBin(t *testing.T) {
	assert.Equal(t, 0, EntropyBin(0, 32))
	assert.Equal(t, 31, EntropyBin(255, 32))
	assert.Equal(t, 31, EntropyBin(400, 32))
	assert.Equal(t, 0, EntropyBin(-4, 32))
	assert.Equal(t, 16, EntropyBin(128, 32))
}

func TestClampBins(t *testing.T) {
	assert.Equal(t, 1, ClampBins(0))
	assert.Equal(t, 32, ClampBins(32))
	assert.Equal(t, MaxEntropyBins, ClampBins(500))
}

func TestColumnEntropy(t *testing.T) {
	t.Run("constant image has zero entropy", func(t *testing.T) {
		out := ColumnEntropy(constantSurface(10, 6, 128), 5, 32)
		require.Len(t, out, 10)
		for _, v := range out {
			assert.InDelta(t, 0, v, 1e-6)
		}
	})

	t.Run("two equally likely values give one bit", func(t *testing.T) {
		s := NewSurface(3, 4)
		for y := 0; y < 4; y++ {
			v := float32(0)
			if y%2 == 1 {
				v = 255
			}
			for x := 0; x < 3; x++ {
				s.Pix[y*3+x] = v
			}
		}
		out := ColumnEntropy(s, 1, 32)
		for _, v := range out {
			assert.InDelta(t, 1, v, 1e-6)
		}
	})

	t.Run("window spans neighbouring columns", func(t *testing.T) {
		s := NewSurface(4, 2)
		copy(s.Pix, []float32{0, 0, 255, 255, 0, 0, 255, 255})
		out := ColumnEntropy(s, 3, 2)
		assert.InDelta(t, 0, out[0], 1e-6)
		// Strip [0, 3) holds four dark and two bright samples.
		assert.InDelta(t, 0.9183, out[1], 1e-3)
		assert.InDelta(t, 0.9183, out[2], 1e-3)
		assert.InDelta(t, 0, out[3], 1e-6)
	})
}

func TestColumnVectorsMatchWidth(t *testing.T) {
	for _, w := range []int{1, 2, 7, 64} {
		s := constantSurface(w, 5, 10)
		mean, variance := ColumnGradStats(SobelMagnitude(GaussianBlur(s, 5)))
		assert.Len(t, ColumnMeanIntensity(s), w)
		assert.Len(t, mean, w)
		assert.Len(t, variance, w)
		assert.Len(t, ColumnEntropy(s, 15, 32), w)
	}
}
