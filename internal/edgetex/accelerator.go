package edgetex

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

// EnvAccelerator selects the accelerator for the whole process.
const EnvAccelerator = "EDGE_TEXTURE_ACCELERATOR"

// Accelerator labels the pipeline that produced an outcome.
type Accelerator string

const (
	AcceleratorCPU Accelerator = "cpu"
	AcceleratorGPU Accelerator = "gpu"
)

// Directive says how the accelerator is chosen.
type Directive int

const (
	Auto Directive = iota
	ForceCPU
	ForceGPU
	// MockGPU runs the CPU pipeline but labels the result as GPU. It is only
	// honoured inside test binaries.
	MockGPU
)

func (d Directive) String() string {
	switch d {
	case ForceCPU:
		return "cpu"
	case ForceGPU:
		return "gpu"
	case MockGPU:
		return "mock-gpu"
	default:
		return "auto"
	}
}

// ParseDirective accepts cpu, gpu, auto and mock-gpu (case-insensitive).
// The empty string means auto.
func ParseDirective(s string) (Directive, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "cpu":
		return ForceCPU, nil
	case "gpu":
		return ForceGPU, nil
	case "mock-gpu":
		if !testing.Testing() {
			return Auto, nil
		}
		return MockGPU, nil
	default:
		return Auto, fmt.Errorf("%w: %q", ErrUnknownDirective, s)
	}
}

// DirectiveFromEnv reads EDGE_TEXTURE_ACCELERATOR. Unknown values fall back
// to auto.
func DirectiveFromEnv() Directive {
	d, err := ParseDirective(os.Getenv(EnvAccelerator))
	if err != nil {
		return Auto
	}
	return d
}
