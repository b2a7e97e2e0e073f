// Package projection finds the gutter of a double page from the column
// projection of its foreground mask.
package projection

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const epsilon = 1e-6

// Analysis is a successful valley search.
type Analysis struct {
	SplitX     int
	Confidence float64
	Imbalance  float64
	EdgeMargin int
	TotalMass  float64
	Smoothed   []float64
}

// Analyze searches the smoothed projection for the most balanced valley.
// It returns nil when no split can be located: an empty projection or a
// search window swallowed by the edge margins.
func Analyze(proj []float64, edgeExclusionRatio float64) *Analysis {
	w := len(proj)
	if w == 0 || floats.Max(proj) <= 0 {
		return nil
	}

	sigma := math.Max(float64(w)/200.0, 1)
	smoothed := Smooth(proj, sigma)

	margin := max(5, int(math.Floor(float64(w)*edgeExclusionRatio)))
	lo, hi := margin, w-margin
	if lo >= hi {
		return nil
	}

	candidates := valleys(smoothed, lo, hi)

	cumulative := make([]float64, w+1)
	floats.CumSum(cumulative[1:], smoothed)
	total := cumulative[w]
	if total <= 0 {
		return nil
	}
	maxScore := floats.Max(smoothed)

	best, bestScore := -1, math.Inf(1)
	for _, i := range candidates {
		balance := math.Abs(cumulative[i]/total - 0.5)
		depth := smoothed[i] / (maxScore + epsilon)
		score := balance + 0.1*depth
		if score < bestScore {
			best, bestScore = i, score
		}
	}

	conf := (maxScore - smoothed[best]) / (maxScore + epsilon)
	conf = math.Min(math.Max(conf, 0), 1)

	left := cumulative[best]
	right := total - left

	return &Analysis{
		SplitX:     best,
		Confidence: conf,
		Imbalance:  math.Abs(left-right) / (total + epsilon),
		EdgeMargin: margin,
		TotalMass:  total,
		Smoothed:   smoothed,
	}
}

// valleys returns the local minima of v inside [lo, hi). When there are
// none the window minimum is returned.
func valleys(v []float64, lo, hi int) []int {
	var out []int
	for i := lo; i < hi; i++ {
		if i == 0 || i == len(v)-1 {
			continue
		}
		if v[i] <= v[i-1] && v[i] <= v[i+1] {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		out = append(out, lo+floats.MinIdx(v[lo:hi]))
	}
	return out
}

// Smooth convolves v with a normalized Gaussian of half-width ceil(3*sigma)
// using clamp-to-edge sampling.
func Smooth(v []float64, sigma float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	r := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*r+1)
	for i := range kernel {
		d := float64(i - r)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	for x := 0; x < n; x++ {
		var acc float64
		for i, k := range kernel {
			j := x + i - r
			if j < 0 {
				j = 0
			} else if j >= n {
				j = n - 1
			}
			acc += k * v[j]
		}
		out[x] = acc
	}
	return out
}
