// Package edgetex scores image columns by edge texture and looks for the
// gutter between two facing pages.
//
// The column metrics come from a Backend: the CPU reference built on the
// kernels in internal/algorithms, or a CUDA backend when the binary is
// built with the cuda tag and a device is present. Both feed the same
// Evaluate step, so backends only need to agree on the column vectors.
package edgetex

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
)

// Analyze runs the CPU pipeline.
func Analyze(luma *algorithms.Surface, cfg Config) (*Outcome, error) {
	return analyzeWith(CPU(), luma, cfg)
}

// AnalyzeWithAcceleration runs the pipeline on the accelerator the
// directive selects. Any GPU failure falls back to the CPU; the returned
// outcome records which accelerator produced it.
func AnalyzeWithAcceleration(luma *algorithms.Surface, cfg Config, directive Directive, logger logrus.FieldLogger) (*Outcome, error) {
	if logger == nil {
		logger = discardLogger()
	}
	switch directive {
	case ForceCPU:
		return Analyze(luma, cfg)
	case MockGPU:
		return analyzeWith(mockGPU{}, luma, cfg)
	}

	gpu, err := SharedGPU()
	if err != nil {
		if directive == ForceGPU {
			logger.WithError(err).Warn("GPU requested but unavailable, using CPU")
		} else {
			logger.WithError(err).Debug("GPU unavailable, using CPU")
		}
		return Analyze(luma, cfg)
	}
	out, err := analyzeWith(gpu, luma, cfg)
	if err != nil {
		logger.WithError(err).Warn("GPU edge analysis failed, falling back to CPU")
		return Analyze(luma, cfg)
	}
	return out, nil
}

func analyzeWith(b Backend, luma *algorithms.Surface, cfg Config) (*Outcome, error) {
	cols, err := b.Compute(luma, cfg, false)
	if err != nil {
		return nil, err
	}
	out := Evaluate(cols, cfg)
	out.Accelerator = b.Name()
	return out, nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
