package edgetex

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
)

// shared holds the process-wide GPU backend. It is created lazily on first
// use; a failed initialization is retried on the next request.
var shared struct {
	mu      sync.Mutex
	backend atomic.Pointer[Backend]
}

// SharedGPU returns the process-wide GPU backend, initializing it on first
// use.
func SharedGPU() (Backend, error) {
	if b := shared.backend.Load(); b != nil {
		return *b, nil
	}
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if b := shared.backend.Load(); b != nil {
		return *b, nil
	}
	b, err := Open("gpu")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGPUInit, err)
	}
	shared.backend.Store(&b)
	return b, nil
}

// ProbeGPU reports which accelerator a GPU request would end up using. The
// shared backend has to initialize and complete a small dispatch.
func ProbeGPU() Accelerator {
	return probe(SharedGPU)
}

// ResolveAccelerator labels the accelerator a directive ends up using.
func ResolveAccelerator(d Directive) Accelerator {
	switch d {
	case ForceCPU:
		return AcceleratorCPU
	case MockGPU:
		return AcceleratorGPU
	}
	return ProbeGPU()
}

func probe(open func() (Backend, error)) Accelerator {
	b, err := open()
	if err != nil {
		return AcceleratorCPU
	}
	luma := algorithms.NewSurface(probeSize, probeSize)
	for i := range luma.Pix {
		luma.Pix[i] = float32((i * 37) % 256)
	}
	cols, err := b.Compute(luma, DefaultConfig(), false)
	if err != nil || cols == nil || cols.Width != probeSize {
		return AcceleratorCPU
	}
	return AcceleratorGPU
}

const probeSize = 64
