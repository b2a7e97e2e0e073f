package edgetex

import (
	"fmt"
	"sort"
	"sync"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
)

// Columns holds the per-column vectors a backend computes for one image.
// Every vector has exactly Width entries.
type Columns struct {
	Width         int
	MeanIntensity []float32
	GradMean      []float32
	GradVariance  []float32
	Entropy       []float32
	// Trace carries the intermediate surfaces when requested.
	Trace *Trace
}

// Trace exposes the full-frame intermediates of the kernel chain.
type Trace struct {
	Gamma    []float32
	Blurred  []float32
	Gradient []float32
}

// Backend computes column metrics for a luma surface.
type Backend interface {
	Name() Accelerator
	Compute(luma *algorithms.Surface, cfg Config, trace bool) (*Columns, error)
}

// Factory builds a backend. Factories for hardware backends report
// ErrGPUUnavailable when no device is present.
type Factory func() (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a backend factory under name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Open builds the backend registered under name.
func Open(name string) (Backend, error) {
	registryMu.RLock()
	factory, exists := registry[name]
	registryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("backend not found: %s", name)
	}
	return factory()
}

// Backends lists the registered backend names.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("cpu", func() (Backend, error) { return CPU(), nil })
	Register("gpu", newGPUBackend)
}

func checkInput(luma *algorithms.Surface) error {
	if luma == nil {
		return fmt.Errorf("input image is empty")
	}
	if len(luma.Pix) != luma.Width*luma.Height {
		return fmt.Errorf("%w: %d samples for %dx%d", ErrLengthMismatch, len(luma.Pix), luma.Width, luma.Height)
	}
	return nil
}
