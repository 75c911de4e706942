// Package prime finds primes by index and by digit count.
//
// Index requests run a segmented sieve. Digit requests scan upward from
// 10^(d−1) over candidates coprime to 210, reject small factors by trial
// division and confirm the survivor with Baillie-PSW.
package prime

import (
	"context"
	"fmt"
	"math"
	"math/big"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/sequence"
)

// wheelModulus is 2·3·5·7.
const wheelModulus = 210

// wheelGaps[r] is the distance from residue r to the next residue coprime to
// wheelModulus.
var wheelGaps = buildWheel()

func buildWheel() [wheelModulus]uint64 {
	var gaps [wheelModulus]uint64
	for r := uint64(0); r < wheelModulus; r++ {
		g := uint64(1)
		for !onWheel((r + g) % wheelModulus) {
			g++
		}
		gaps[r] = g
	}
	return gaps
}

// Engine implements sequence.Engine and sequence.DigitScanner for primes.
type Engine struct {
	sieve *Sieve
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIndex overrides the largest index the sieve accepts.
func WithMaxIndex(n uint64) Option {
	return func(e *Engine) { e.sieve.maxIndex = n }
}

// WithSegmentSize sets the number of odd candidates sieved per segment.
func WithSegmentSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sieve.segmentSize = n
		}
	}
}

// New creates a prime Engine.
func New(opts ...Option) *Engine {
	e := &Engine{sieve: NewSieve()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Kind() sequence.Kind { return sequence.Prime }
func (e *Engine) Name() string        { return sequence.DefaultBackend }

// ValueAtIndex returns the n-th prime, 1-based.
func (e *Engine) ValueAtIndex(ctx context.Context, n uint64) (*big.Int, error) {
	p, err := e.sieve.NthPrime(ctx, n)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(p), nil
}

// EstimateIndexForDigits returns π(10^(d−1)) + 1 using x/ln x.
func (e *Engine) EstimateIndexForDigits(d uint64) uint64 {
	if d <= 1 {
		return 1
	}
	x := float64(d-1) * math.Ln10
	est := math.Exp(x-math.Log(x)) + 1
	if math.IsInf(est, 1) || est >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(est)
}

// FirstWithDigits returns the smallest prime with at least d digits. The
// index returned is the distance from 10^(d−1) to that prime.
func (e *Engine) FirstWithDigits(ctx context.Context, d uint64) (*big.Int, uint64, error) {
	if d == 0 {
		return nil, 0, apperrors.NewInputError("digits", "must be at least 1", d)
	}
	if d == 1 {
		return big.NewInt(2), 1, nil
	}

	floor := new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(d-1), nil)
	candidate := new(big.Int).Set(floor)
	r := new(big.Int).Mod(candidate, big.NewInt(wheelModulus)).Uint64()
	if !onWheel(r) {
		step := wheelGaps[r]
		candidate.Add(candidate, new(big.Int).SetUint64(step))
		r = (r + step) % wheelModulus
	}

	// Prime gaps near x average ln x; the tracker saturates if the scan runs
	// longer.
	expected := uint64(float64(d)*math.Ln10) + 1
	progress := sequence.NewLinearProgress(sequence.ProgressFrom(ctx), expected)

	step := new(big.Int)
	for tested := uint64(1); ; tested++ {
		if err := sequence.Checkpoint(ctx); err != nil {
			return nil, 0, fmt.Errorf("prime scan canceled after %d candidates: %w", tested, err)
		}
		if IsProbablePrime(candidate) {
			progress.Update(expected)
			offset := new(big.Int).Sub(candidate, floor)
			if !offset.IsUint64() {
				return nil, 0, apperrors.CalculationTooLargeError{
					Reason: "prime gap exceeds the index range", Target: d, Limit: math.MaxUint64,
				}
			}
			return candidate, offset.Uint64(), nil
		}
		progress.Add(wheelGaps[r])
		candidate.Add(candidate, step.SetUint64(wheelGaps[r]))
		r = (r + wheelGaps[r]) % wheelModulus
	}
}

// onWheel reports whether residue r is coprime to wheelModulus.
func onWheel(r uint64) bool {
	return r%2 != 0 && r%3 != 0 && r%5 != 0 && r%7 != 0
}

var backends = map[string]sequence.Creator{
	sequence.DefaultBackend: func() sequence.Engine { return New() },
}

// Register adds every prime backend compiled into the binary to r.
func Register(r *sequence.Registry) {
	for name, creator := range backends {
		r.Register(sequence.Prime, name, creator)
	}
}
