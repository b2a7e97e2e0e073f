package edgetex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
)

// flatColumns returns columns with no texture (white score 1) and the
// given mean intensity.
func flatColumns(w int, intensity float32) *Columns {
	c := &Columns{
		Width:         w,
		MeanIntensity: make([]float32, w),
		GradMean:      make([]float32, w),
		GradVariance:  make([]float32, w),
		Entropy:       make([]float32, w),
	}
	for i := range c.MeanIntensity {
		c.MeanIntensity[i] = intensity
	}
	return c
}

// texture marks [x0, x1) as fully textured (white score 0).
func texture(c *Columns, x0, x1 int, intensity float32) {
	for x := x0; x < x1; x++ {
		c.GradMean[x] = 1
		c.GradVariance[x] = 1
		c.Entropy[x] = 1
		c.MeanIntensity[x] = intensity
	}
}

func TestWhiteScore(t *testing.T) {
	c := flatColumns(4, 128)
	texture(c, 1, 2, 128)
	score := WhiteScore(c, DefaultConfig().ScoreWeights)
	assert.InDeltaSlice(t, []float32{1, 0, 1, 1}, score, 1e-6)

	flat := WhiteScore(flatColumns(3, 0), DefaultConfig().ScoreWeights)
	assert.InDeltaSlice(t, []float32{1, 1, 1}, flat, 1e-6, "zero range normalizes to zeros")
}

func TestEvaluateCenterBand(t *testing.T) {
	c := flatColumns(100, 128)
	texture(c, 48, 52, 128)

	out := Evaluate(c, DefaultConfig())
	require.NotNil(t, out.CenterBand)
	assert.Equal(t, 48, out.CenterBand.StartX)
	assert.Equal(t, 51, out.CenterBand.EndX)
	require.NotNil(t, out.SplitX)
	assert.Equal(t, 49, *out.SplitX)
	assert.InDelta(t, 1, out.Confidence, 1e-4)
	assert.Nil(t, out.LeftMargin)
	assert.Nil(t, out.RightMargin)

	assert.Equal(t, 35, out.Notes.CenterStart)
	assert.Equal(t, 65, out.Notes.CenterEnd)
	assert.Equal(t, 6, out.Notes.CenterMaxWidth)
	assert.Equal(t, 3, out.Notes.MinMarginWidth)
}

func TestEvaluateRejectsWideBand(t *testing.T) {
	c := flatColumns(100, 128)
	texture(c, 40, 60, 128)
	out := Evaluate(c, DefaultConfig())
	assert.Nil(t, out.CenterBand)
	assert.Nil(t, out.SplitX)
}

func TestEvaluateMargins(t *testing.T) {
	c := flatColumns(100, 128)
	texture(c, 0, 5, 230)
	texture(c, 95, 100, 230)
	texture(c, 48, 52, 128)

	out := Evaluate(c, DefaultConfig())
	require.NotNil(t, out.LeftMargin)
	assert.Equal(t, 0, out.LeftMargin.StartX)
	assert.Equal(t, 4, out.LeftMargin.EndX)
	require.NotNil(t, out.RightMargin)
	assert.Equal(t, 95, out.RightMargin.StartX)
	assert.Equal(t, 99, out.RightMargin.EndX)

	brightConf := float32(230-200) / 55
	want := 0.6 + 0.4*brightConf
	assert.InDelta(t, want, out.LeftMargin.Confidence, 1e-4)
	assert.InDelta(t, want, out.Confidence, 1e-4, "center confidence 1 times mean margin confidence")
}

func TestEvaluateMarginStartsAtEdge(t *testing.T) {
	c := flatColumns(100, 128)
	texture(c, 1, 10, 230)
	texture(c, 90, 99, 230)

	out := Evaluate(c, DefaultConfig())
	assert.Nil(t, out.LeftMargin, "a neutral first column leaves no left margin")
	assert.Nil(t, out.RightMargin, "a neutral last column leaves no right margin")
}

func TestEvaluateNeutralColumnsBreakMargins(t *testing.T) {
	c := flatColumns(100, 128)
	texture(c, 0, 10, 120)

	out := Evaluate(c, DefaultConfig())
	assert.Nil(t, out.LeftMargin)

	cfg := DefaultConfig()
	cfg.EnableDualBrightness = false
	out = Evaluate(c, cfg)
	require.NotNil(t, out.LeftMargin)
	assert.Equal(t, 0, out.LeftMargin.StartX)
	assert.Equal(t, 9, out.LeftMargin.EndX)
	assert.InDelta(t, 1, out.LeftMargin.Confidence, 1e-4)
	assert.InDelta(t, 1, out.Confidence, 1e-4)
}

func TestEvaluateEmpty(t *testing.T) {
	out := Evaluate(flatColumns(0, 0), DefaultConfig())
	assert.Nil(t, out.SplitX)
	assert.Zero(t, out.Confidence)
}

func randomSurface(w, h int, seed int64) *algorithms.Surface {
	rng := rand.New(rand.NewSource(seed))
	s := algorithms.NewSurface(w, h)
	for i := range s.Pix {
		s.Pix[i] = float32(rng.Intn(256))
	}
	return s
}

func TestAnalyzeInvariants(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {7, 3}, {64, 40}, {121, 33}} {
		luma := randomSurface(size[0], size[1], int64(size[0]))
		out, err := Analyze(luma, DefaultConfig())
		require.NoError(t, err)

		w := size[0]
		assert.Len(t, out.GradMean, w)
		assert.Len(t, out.GradVariance, w)
		assert.Len(t, out.Entropy, w)
		assert.Len(t, out.MeanIntensity, w)
		assert.Len(t, out.WhiteScore, w)
		for x := 0; x < w; x++ {
			assert.GreaterOrEqual(t, out.WhiteScore[x], float32(0))
			assert.LessOrEqual(t, out.WhiteScore[x], float32(1))
			assert.GreaterOrEqual(t, out.MeanIntensity[x], float32(0))
			assert.LessOrEqual(t, out.MeanIntensity[x], float32(255))
		}
		assert.GreaterOrEqual(t, out.Confidence, float32(0))
		assert.LessOrEqual(t, out.Confidence, float32(1))
		assert.Equal(t, AcceleratorCPU, out.Accelerator)
	}
}

func TestComputeRejectsMismatchedInput(t *testing.T) {
	bad := &algorithms.Surface{Width: 4, Height: 4, Pix: make([]float32, 10)}
	_, err := CPU().Compute(bad, DefaultConfig(), false)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
