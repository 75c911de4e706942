// Package factorial computes exact factorials by binary splitting.
//
// The range [1, n] is halved recursively and each half's product is formed
// the same way, so the operands of every multiplication have comparable bit
// lengths. With fast multiplication this bounds the work to O(n·(log n)²)
// instead of the O(n²) of a running accumulator. Large halves are multiplied
// on separate goroutines.
package factorial

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"runtime"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/parallel"
	"github.com/agbru/megacalc/internal/sequence"
)

const (
	// MaxFactUint64 is the largest n whose factorial fits in a uint64.
	MaxFactUint64 = 20

	// leafSize is the sub-range length multiplied directly.
	leafSize = 64

	// DefaultParallelThreshold is the sub-range length above which the two
	// halves are computed concurrently.
	DefaultParallelThreshold = 1 << 14

	// maxParallelDepth bounds the number of concurrent halves to 2^depth.
	maxParallelDepth = 4
)

// Engine is the math/big binary splitting engine.
type Engine struct {
	parallelThreshold uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallelThreshold sets the sub-range length above which halves run
// concurrently. Zero disables concurrency.
func WithParallelThreshold(n uint64) Option {
	return func(e *Engine) { e.parallelThreshold = n }
}

// New creates a binary splitting Engine.
func New(opts ...Option) *Engine {
	e := &Engine{parallelThreshold: DefaultParallelThreshold}
	for _, opt := range opts {
		opt(e)
	}
	if runtime.GOMAXPROCS(0) < 2 {
		e.parallelThreshold = 0
	}
	return e
}

func (e *Engine) Kind() sequence.Kind { return sequence.Factorial }
func (e *Engine) Name() string        { return sequence.DefaultBackend }

// EstimateIndexForDigits returns the smallest n whose Stirling estimate of
// log10(n!) reaches d−1.
func (e *Engine) EstimateIndexForDigits(d uint64) uint64 {
	return estimateIndexForDigits(d)
}

func estimateIndexForDigits(d uint64) uint64 {
	if d <= 1 {
		return 0
	}
	goal := float64(d - 1)
	hi := uint64(2)
	for sequence.Log10Factorial(float64(hi)) < goal {
		if hi > math.MaxUint64/2 {
			return hi
		}
		hi *= 2
	}
	lo := hi / 2
	for lo < hi {
		mid := lo + (hi-lo)/2
		if sequence.Log10Factorial(float64(mid)) < goal {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// ValueAtIndex returns n!. Sub-range products check for cancellation before
// they start.
func (e *Engine) ValueAtIndex(ctx context.Context, n uint64) (*big.Int, error) {
	if err := sequence.Checkpoint(ctx); err != nil {
		return nil, err
	}
	if n > math.MaxInt64 {
		return nil, apperrors.CalculationTooLargeError{
			Reason: "factorial index exceeds the supported range", Target: n, Limit: math.MaxInt64,
		}
	}
	if n <= MaxFactUint64 {
		return new(big.Int).SetUint64(smallFactorial(n)), nil
	}

	progress := sequence.NewLinearProgress(sequence.ProgressFrom(ctx), n-1)
	return e.product(ctx, 2, n, 0, progress)
}

func smallFactorial(n uint64) uint64 {
	f := uint64(1)
	for i := uint64(2); i <= n; i++ {
		f *= i
	}
	return f
}

// product returns lo·(lo+1)···hi for lo ≤ hi.
func (e *Engine) product(ctx context.Context, lo, hi uint64, depth int, progress *sequence.LinearProgress) (*big.Int, error) {
	if err := sequence.Checkpoint(ctx); err != nil {
		return nil, fmt.Errorf("binary splitting canceled at [%d, %d]: %w", lo, hi, err)
	}
	if hi-lo < leafSize {
		leaf := new(big.Int).MulRange(int64(lo), int64(hi))
		progress.Add(hi - lo + 1)
		return leaf, nil
	}

	mid := lo + (hi-lo)/2
	var left, right *big.Int
	if e.parallelThreshold > 0 && hi-lo >= e.parallelThreshold && depth < maxParallelDepth {
		err := parallel.Pair(
			func() (err error) {
				left, err = e.product(ctx, lo, mid, depth+1, progress)
				return err
			},
			func() (err error) {
				right, err = e.product(ctx, mid+1, hi, depth+1, progress)
				return err
			},
		)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		if left, err = e.product(ctx, lo, mid, depth, progress); err != nil {
			return nil, err
		}
		if right, err = e.product(ctx, mid+1, hi, depth, progress); err != nil {
			return nil, err
		}
	}
	return left.Mul(left, right), nil
}

var backends = map[string]sequence.Creator{
	sequence.DefaultBackend: func() sequence.Engine { return New() },
}

// Register adds every factorial backend compiled into the binary to r.
func Register(r *sequence.Registry) {
	for name, creator := range backends {
		r.Register(sequence.Factorial, name, creator)
	}
}
