package edgetex

import "errors"

var (
	ErrUnknownDirective = errors.New("unknown accelerator directive")
	ErrGPUUnavailable   = errors.New("gpu adapter unavailable")
	ErrGPUInit          = errors.New("gpu device initialization failed")
	ErrGPUExecution     = errors.New("gpu execution failed")
	ErrLengthMismatch   = errors.New("input length does not match surface dimensions")
	ErrEntropyBins      = errors.New("entropy bins exceed workgroup histogram size")
)
