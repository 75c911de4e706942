//go:build !linux

package governor

// NewSampler returns the runtime sampler on platforms without procfs.
func NewSampler() Sampler {
	return RuntimeSampler{}
}
