package edgetex

import (
	"github.com/x956606865/reiChan-sub000/internal/algorithms"
)

type cpuBackend struct{}

// CPU returns the reference backend built on the pure Go kernels.
func CPU() Backend { return cpuBackend{} }

func (cpuBackend) Name() Accelerator { return AcceleratorCPU }

func (cpuBackend) Compute(luma *algorithms.Surface, cfg Config, trace bool) (*Columns, error) {
	if err := checkInput(luma); err != nil {
		return nil, err
	}
	gamma := algorithms.ApplyGamma(luma, cfg.Gamma)
	meanIntensity := algorithms.ColumnMeanIntensity(gamma)
	blurred := algorithms.GaussianBlur(gamma, algorithms.EnsureOdd(cfg.GaussianKernel))
	grad := algorithms.SobelMagnitude(blurred)
	gradMean, gradVar := algorithms.ColumnGradStats(grad)
	entropy := algorithms.ColumnEntropy(blurred, algorithms.EnsureOdd(cfg.EntropyWindow), algorithms.ClampBins(cfg.EntropyBins))

	cols := &Columns{
		Width:         luma.Width,
		MeanIntensity: meanIntensity,
		GradMean:      gradMean,
		GradVariance:  gradVar,
		Entropy:       entropy,
	}
	if trace {
		cols.Trace = &Trace{Gamma: gamma.Pix, Blurred: blurred.Pix, Gradient: grad.Pix}
	}
	return cols, nil
}

// mockGPU runs the CPU kernels and labels the result as GPU.
type mockGPU struct{ cpuBackend }

func (mockGPU) Name() Accelerator { return AcceleratorGPU }
