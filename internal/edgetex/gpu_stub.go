//go:build !cuda

package edgetex

// newGPUBackend reports the GPU as unavailable in builds without the cuda tag.
func newGPUBackend() (Backend, error) {
	return nil, ErrGPUUnavailable
}
