package metrics

import (
	"bytes"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
	"github.com/x956606865/reiChan-sub000/internal/edgetex"
)

func noiseSurface(w, h int, seed int64) *algorithms.Surface {
	r := rand.New(rand.NewSource(seed))
	s := algorithms.NewSurface(w, h)
	for i := range s.Pix {
		s.Pix[i] = r.Float32()
	}
	return s
}

func TestMeasureSameBackendAgrees(t *testing.T) {
	luma := noiseSurface(64, 40, 7)
	report, err := NewEvaluator().Measure(edgetex.CPU(), edgetex.CPU(), luma, edgetex.DefaultConfig())
	require.NoError(t, err)

	assert.True(t, report.Agree)
	assert.Empty(t, report.Failures())
	assert.Equal(t, "cpu", report.Reference)
	assert.Len(t, report.Quantities, 7)
	for _, q := range report.Quantities {
		assert.Zero(t, q.MaxAbsError, q.Name)
	}
}

func TestCompareFlagsPerturbedQuantity(t *testing.T) {
	luma := noiseSurface(48, 30, 11)
	ref, err := edgetex.CPU().Compute(luma, edgetex.DefaultConfig(), false)
	require.NoError(t, err)
	cand, err := edgetex.CPU().Compute(luma, edgetex.DefaultConfig(), false)
	require.NoError(t, err)

	cand.Entropy[5] += 0.01
	cand.GradMean[9] += 5e-5

	report, err := NewEvaluator().Compare(ref, cand)
	require.NoError(t, err)
	assert.False(t, report.Agree)
	assert.Equal(t, []string{"entropy"}, report.Failures())
	// Trace quantities are skipped without a trace.
	assert.Len(t, report.Quantities, 4)

	for _, q := range report.Quantities {
		if q.Name == "entropy" {
			assert.Equal(t, 5, q.Worst)
			assert.InDelta(t, 0.01, q.MaxAbsError, 1e-6)
		}
	}
}

func TestCompareWidthMismatch(t *testing.T) {
	a := &edgetex.Columns{Width: 3}
	b := &edgetex.Columns{Width: 4}
	_, err := NewEvaluator().Compare(a, b)
	assert.ErrorIs(t, err, edgetex.ErrLengthMismatch)
}

func TestTolerance(t *testing.T) {
	e := NewEvaluator()
	tol, ok := e.Tolerance("grad_variance")
	require.True(t, ok)
	assert.Equal(t, 2e-2, tol)

	e.Register(Quantity{Name: "grad_variance", Tolerance: 1, Extract: func(c *edgetex.Columns) []float32 { return c.GradVariance }})
	tol, _ = e.Tolerance("grad_variance")
	assert.Equal(t, 1.0, tol)

	_, ok = e.Tolerance("missing")
	assert.False(t, ok)
}

func TestRenderProfile(t *testing.T) {
	luma := noiseSurface(120, 60, 3)
	out, err := edgetex.Analyze(luma, edgetex.DefaultConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderProfile(out, "noise", &buf))
	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, profileWidth, cfg.Width)
	assert.Equal(t, profileHeight, cfg.Height)

	assert.Error(t, RenderProfile(&edgetex.Outcome{}, "empty", &buf))
}
