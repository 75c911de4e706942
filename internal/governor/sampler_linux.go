//go:build linux

package governor

import (
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// NewSampler returns a sampler reading the resident set size from
// /proc/self/stat, or the getrusage peak RSS when procfs is unavailable.
func NewSampler() Sampler {
	proc, err := procfs.Self()
	if err != nil {
		return RusageSampler{}
	}
	return &ProcSampler{proc: proc}
}

// ProcSampler reads the current RSS of the process through procfs.
type ProcSampler struct {
	proc procfs.Proc
}

func (s *ProcSampler) Sample() (uint64, error) {
	stat, err := s.proc.Stat()
	if err != nil {
		return RusageSampler{}.Sample()
	}
	return uint64(stat.ResidentMemory()), nil
}

// RusageSampler reports the peak RSS recorded by the kernel. The value never
// decreases, so it overstates the footprint after memory is released.
type RusageSampler struct{}

func (RusageSampler) Sample() (uint64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	// Linux reports ru_maxrss in KiB.
	return uint64(ru.Maxrss) * 1024, nil
}
