//go:build cuda

package edgetex

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/cuda"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
)

// cudaBackend runs the blur and gradient passes on a CUDA device. Column
// reductions and the entropy histogram run on the host over the downloaded
// surfaces. Dispatches are serialized: one image at a time.
type cudaBackend struct {
	mu sync.Mutex
}

func newGPUBackend() (Backend, error) {
	if cuda.GetCudaEnabledDeviceCount() < 1 {
		return nil, ErrGPUUnavailable
	}
	return &cudaBackend{}, nil
}

func (b *cudaBackend) Name() Accelerator { return AcceleratorGPU }

func (b *cudaBackend) Compute(luma *algorithms.Surface, cfg Config, trace bool) (cols *Columns, err error) {
	if err := checkInput(luma); err != nil {
		return nil, err
	}
	if cfg.EntropyBins > algorithms.MaxEntropyBins {
		return nil, fmt.Errorf("%w: %d", ErrEntropyBins, cfg.EntropyBins)
	}
	if luma.Width == 0 || luma.Height == 0 {
		return CPU().Compute(luma, cfg, trace)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			cols = nil
			err = fmt.Errorf("%w: %v", ErrGPUExecution, r)
		}
	}()

	w, h := luma.Width, luma.Height
	gamma := algorithms.ApplyGamma(luma, cfg.Gamma)

	host, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV32F, float32Bytes(gamma.Pix))
	if err != nil {
		return nil, fmt.Errorf("%w: upload: %v", ErrGPUExecution, err)
	}
	defer host.Close()

	src := cuda.NewGpuMat()
	defer src.Close()
	src.Upload(host)

	k := algorithms.EnsureOdd(cfg.GaussianKernel)
	sigma := algorithms.GaussianSigma(k)
	gauss := cuda.NewGaussianFilterWithParams(gocv.MatTypeCV32F, gocv.MatTypeCV32F, image.Pt(k, k),
		sigma, sigma, gocv.BorderReplicate, gocv.BorderReplicate)
	defer gauss.Close()

	blurred := cuda.NewGpuMat()
	defer blurred.Close()
	gauss.Apply(src, &blurred)

	sobelX := cuda.NewSobelFilterWithParams(gocv.MatTypeCV32F, gocv.MatTypeCV32F, 1, 0, 3, 1,
		gocv.BorderReplicate, gocv.BorderReplicate)
	defer sobelX.Close()
	sobelY := cuda.NewSobelFilterWithParams(gocv.MatTypeCV32F, gocv.MatTypeCV32F, 0, 1, 3, 1,
		gocv.BorderReplicate, gocv.BorderReplicate)
	defer sobelY.Close()

	gx, gy := cuda.NewGpuMat(), cuda.NewGpuMat()
	defer gx.Close()
	defer gy.Close()
	sobelX.Apply(blurred, &gx)
	sobelY.Apply(blurred, &gy)

	gx2, gy2, sum, mag := cuda.NewGpuMat(), cuda.NewGpuMat(), cuda.NewGpuMat(), cuda.NewGpuMat()
	defer gx2.Close()
	defer gy2.Close()
	defer sum.Close()
	defer mag.Close()
	cuda.Sqr(gx, &gx2)
	cuda.Sqr(gy, &gy2)
	cuda.Add(gx2, gy2, &sum)
	cuda.Sqrt(sum, &mag)

	blurredHost, err := download(blurred, w, h)
	if err != nil {
		return nil, err
	}
	gradHost, err := download(mag, w, h)
	if err != nil {
		return nil, err
	}

	gradMean, gradVar := algorithms.ColumnGradStats(gradHost)
	cols = &Columns{
		Width:         w,
		MeanIntensity: algorithms.ColumnMeanIntensity(gamma),
		GradMean:      gradMean,
		GradVariance:  gradVar,
		Entropy:       algorithms.ColumnEntropy(blurredHost, algorithms.EnsureOdd(cfg.EntropyWindow), algorithms.ClampBins(cfg.EntropyBins)),
	}
	if trace {
		cols.Trace = &Trace{Gamma: gamma.Pix, Blurred: blurredHost.Pix, Gradient: gradHost.Pix}
	}
	return cols, nil
}

func download(g cuda.GpuMat, w, h int) (*algorithms.Surface, error) {
	m := gocv.NewMat()
	defer m.Close()
	g.Download(&m)
	if m.Empty() || m.Cols() != w || m.Rows() != h {
		return nil, fmt.Errorf("%w: download returned %dx%d", ErrGPUExecution, m.Cols(), m.Rows())
	}
	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGPUExecution, err)
	}
	s := algorithms.NewSurface(w, h)
	copy(s.Pix, data)
	return s, nil
}

func float32Bytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}
