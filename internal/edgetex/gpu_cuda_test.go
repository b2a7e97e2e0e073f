//go:build cuda

package edgetex_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
	"github.com/x956606865/reiChan-sub000/internal/edgetex"
	"github.com/x956606865/reiChan-sub000/internal/metrics"
)

func TestCUDABackendAgreesWithCPU(t *testing.T) {
	gpu, err := edgetex.SharedGPU()
	if err != nil {
		t.Skipf("no CUDA device: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	eval := metrics.NewEvaluator()
	for _, size := range [][2]int{{64, 48}, {333, 200}, {1000, 700}} {
		luma := algorithms.NewSurface(size[0], size[1])
		for i := range luma.Pix {
			luma.Pix[i] = float32(rng.Intn(256))
		}
		report, err := eval.Measure(edgetex.CPU(), gpu, luma, edgetex.DefaultConfig())
		require.NoError(t, err)
		assert.True(t, report.Agree, "quantities outside tolerance: %v", report.Failures())
	}
}
