// Per-column reductions producing one value per image column
package algorithms

import (
	"math"
)

// MaxEntropyBins bounds the histogram used by ColumnEntropy.
const MaxEntropyBins = 64

// ColumnMeanIntensity returns the mean of every column clamped to [0, 255].
// A zero-height surface yields zeros.
func ColumnMeanIntensity(src *Surface) []float32 {
	w, h := src.Width, src.Height
	out := make([]float32, w)
	if h == 0 {
		return out
	}
	sums := make([]float64, w)
	for y := 0; y < h; y++ {
		row := src.Pix[y*w : (y+1)*w]
		for x, v := range row {
			sums[x] += float64(v)
		}
	}
	for x, s := range sums {
		out[x] = clamp32(float32(s/float64(h)), 0, 255)
	}
	return out
}

// ColumnGradStats returns the per-column mean and population variance of a
// gradient surface. Negative variances from rounding are floored at zero.
func ColumnGradStats(grad *Surface) (mean, variance []float32) {
	w, h := grad.Width, grad.Height
	mean = make([]float32, w)
	variance = make([]float32, w)
	if h == 0 {
		return mean, variance
	}
	sums := make([]float64, w)
	sq := make([]float64, w)
	for y := 0; y < h; y++ {
		row := grad.Pix[y*w : (y+1)*w]
		for x, v := range row {
			f := float64(v)
			sums[x] += f
			sq[x] += f * f
		}
	}
	n := float64(h)
	for x := 0; x < w; x++ {
		m := sums[x] / n
		v := sq[x]/n - m*m
		if v < 0 {
			v = 0
		}
		mean[x] = float32(m)
		variance[x] = float32(v)
	}
	return mean, variance
}

// ClampBins restricts a histogram bin count to [1, MaxEntropyBins].
func ClampBins(bins int) int {
	if bins < 1 {
		return 1
	}
	if bins > MaxEntropyBins {
		return MaxEntropyBins
	}
	return bins
}

// EntropyBin maps a sample onto one of bins uniform bins over [0, 256).
func EntropyBin(v float32, bins int) int {
	if v < 0 {
		v = 0
	}
	b := int(math.Floor(float64(v) / 256.0 * float64(bins)))
	if b >= bins {
		b = bins - 1
	}
	return b
}

// ColumnEntropy computes the Shannon entropy (bits) of the strip
// [x-w/2, x+w/2] around every column, across all rows.
func ColumnEntropy(src *Surface, window, bins int) []float32 {
	w, h := src.Width, src.Height
	out := make([]float32, w)
	if w == 0 || h == 0 {
		return out
	}
	bins = ClampBins(bins)
	half := window / 2
	if half < 0 {
		half = 0
	}

	colHist := make([]int, w*bins)
	for y := 0; y < h; y++ {
		row := src.Pix[y*w : (y+1)*w]
		for x, v := range row {
			colHist[x*bins+EntropyBin(v, bins)]++
		}
	}

	hist := make([]int, bins)
	start, end := 0, 0
	for x := 0; x < w; x++ {
		lo := x - half
		if lo < 0 {
			lo = 0
		}
		hi := x + half + 1
		if hi > w {
			hi = w
		}
		for ; end < hi; end++ {
			for b := 0; b < bins; b++ {
				hist[b] += colHist[end*bins+b]
			}
		}
		for ; start < lo; start++ {
			for b := 0; b < bins; b++ {
				hist[b] -= colHist[start*bins+b]
			}
		}

		total := float64((hi - lo) * h)
		var e float64
		for _, c := range hist {
			if c == 0 {
				continue
			}
			p := float64(c) / total
			e -= p * math.Log2(math.Max(p, 1e-12))
		}
		out[x] = float32(e)
	}
	return out
}
