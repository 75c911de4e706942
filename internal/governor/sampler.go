package governor

import "runtime"

// Sampler reports the current memory footprint of the process in bytes.
type Sampler interface {
	Sample() (uint64, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func() (uint64, error)

// Sample calls f.
func (f SamplerFunc) Sample() (uint64, error) { return f() }

// RuntimeSampler reports the memory the Go runtime obtained from the OS. It
// ignores memory held by C allocations such as GMP.
type RuntimeSampler struct{}

func (RuntimeSampler) Sample() (uint64, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys - m.HeapReleased, nil
}
