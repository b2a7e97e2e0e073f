package edgetex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x956606865/reiChan-sub000/internal/algorithms"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		in   string
		want Directive
	}{
		{"", Auto},
		{"auto", Auto},
		{"CPU", ForceCPU},
		{" gpu ", ForceGPU},
		{"mock-gpu", MockGPU},
	}
	for _, tt := range tests {
		got, err := ParseDirective(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDirective("vulkan")
	assert.ErrorIs(t, err, ErrUnknownDirective)
}

func TestDirectiveFromEnv(t *testing.T) {
	t.Setenv(EnvAccelerator, "cpu")
	assert.Equal(t, ForceCPU, DirectiveFromEnv())

	t.Setenv(EnvAccelerator, "bogus")
	assert.Equal(t, Auto, DirectiveFromEnv())
}

func TestBackendsRegistered(t *testing.T) {
	assert.Subset(t, Backends(), []string{"cpu", "gpu"})
	_, err := Open("missing")
	assert.Error(t, err)
}

func TestMockGPUMatchesCPU(t *testing.T) {
	luma := randomSurface(80, 50, 3)
	cfg := DefaultConfig()

	cpu, err := CPU().Compute(luma, cfg, true)
	require.NoError(t, err)
	gpu, err := mockGPU{}.Compute(luma, cfg, true)
	require.NoError(t, err)

	assert.Equal(t, cpu.GradMean, gpu.GradMean)
	assert.Equal(t, cpu.Entropy, gpu.Entropy)
	assert.Equal(t, cpu.Trace.Gradient, gpu.Trace.Gradient)
	assert.Equal(t, AcceleratorGPU, mockGPU{}.Name())
}

func TestAnalyzeWithAcceleration(t *testing.T) {
	luma := randomSurface(60, 40, 9)
	cfg := DefaultConfig()

	out, err := AnalyzeWithAcceleration(luma, cfg, ForceCPU, nil)
	require.NoError(t, err)
	assert.Equal(t, AcceleratorCPU, out.Accelerator)

	mocked, err := AnalyzeWithAcceleration(luma, cfg, MockGPU, nil)
	require.NoError(t, err)
	assert.Equal(t, AcceleratorGPU, mocked.Accelerator)
	assert.Equal(t, out.WhiteScore, mocked.WhiteScore)
	assert.Equal(t, out.Confidence, mocked.Confidence)

	// Without a device the GPU request falls back to the CPU.
	forced, err := AnalyzeWithAcceleration(luma, cfg, ForceGPU, nil)
	require.NoError(t, err)
	assert.Equal(t, ProbeGPU(), forced.Accelerator)
}

type failingBackend struct{}

func (failingBackend) Name() Accelerator { return AcceleratorGPU }

func (failingBackend) Compute(*algorithms.Surface, Config, bool) (*Columns, error) {
	return nil, ErrGPUExecution
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name string
		open func() (Backend, error)
		want Accelerator
	}{
		{"initialization fails", func() (Backend, error) { return nil, ErrGPUInit }, AcceleratorCPU},
		{"dispatch fails", func() (Backend, error) { return failingBackend{}, nil }, AcceleratorCPU},
		{"dispatch completes", func() (Backend, error) { return mockGPU{}, nil }, AcceleratorGPU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, probe(tt.open))
		})
	}
}

func TestResolveAccelerator(t *testing.T) {
	assert.Equal(t, AcceleratorCPU, ResolveAccelerator(ForceCPU))
	assert.Equal(t, AcceleratorGPU, ResolveAccelerator(MockGPU))
	assert.Equal(t, ProbeGPU(), ResolveAccelerator(Auto))
}
