package governor

import (
	"time"

	apperrors "github.com/agbru/megacalc/internal/errors"
)

const (
	// DefaultMaxMemoryBytes is the default memory ceiling (24 GiB).
	DefaultMaxMemoryBytes uint64 = 24 << 30
	// DefaultMaxDuration is the default wall-clock ceiling.
	DefaultMaxDuration = 300 * time.Second
	// DefaultSampleInterval is the default memory sampling period.
	DefaultSampleInterval = 100 * time.Millisecond
)

// Limits are the ceilings enforced around one governed computation.
type Limits struct {
	MaxMemoryBytes uint64
	MaxDuration    time.Duration
	SampleInterval time.Duration
}

// DefaultLimits returns the default ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxMemoryBytes: DefaultMaxMemoryBytes,
		MaxDuration:    DefaultMaxDuration,
		SampleInterval: DefaultSampleInterval,
	}
}

// Validate checks that every limit is strictly positive.
func (l Limits) Validate() error {
	if l.MaxMemoryBytes == 0 {
		return apperrors.NewConfigError("memory limit must be strictly positive")
	}
	if l.MaxDuration <= 0 {
		return apperrors.NewConfigError("time limit must be strictly positive, got %s", l.MaxDuration)
	}
	if l.SampleInterval <= 0 {
		return apperrors.NewConfigError("sample interval must be strictly positive, got %s", l.SampleInterval)
	}
	return nil
}
