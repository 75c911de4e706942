// Package fibonacci computes exact Fibonacci numbers with the fast doubling
// method.
//
// Fast doubling walks the bits of n from the most significant one while
// maintaining the pair (F(k), F(k+1)) and applying
//
//	F(2k)   = F(k) * (2*F(k+1) - F(k))
//	F(2k+1) = F(k+1)² + F(k)²
//
// followed, when the current bit is set, by (F(k), F(k+1)) ← (F(k+1), F(k)+F(k+1)).
// That is O(log n) multiplications on numbers of O(n) bits. The three
// products of a doubling step are independent and run concurrently once the
// operands are large enough.
package fibonacci

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"runtime"
	"sync"

	"github.com/agbru/megacalc/internal/sequence"
)

const (
	// MaxFibUint64 is the largest index whose term fits in a uint64.
	MaxFibUint64 = 93

	// DefaultParallelThreshold is the operand size, in bits, above which the
	// three products of a doubling step run on separate goroutines.
	DefaultParallelThreshold = 1 << 16
)

var (
	log10Phi      = math.Log10((1 + math.Sqrt(5)) / 2)
	halfLog10Five = 0.5 * math.Log10(5)
)

// Engine is the math/big fast doubling engine.
type Engine struct {
	parallelThreshold int
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallelThreshold sets the operand size in bits above which products run
// concurrently. Zero or a negative value disables concurrency.
func WithParallelThreshold(bits int) Option {
	return func(e *Engine) { e.parallelThreshold = bits }
}

// New creates a fast doubling Engine.
func New(opts ...Option) *Engine {
	e := &Engine{parallelThreshold: DefaultParallelThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Kind() sequence.Kind { return sequence.Fibonacci }
func (e *Engine) Name() string        { return sequence.DefaultBackend }

// EstimateIndexForDigits inverts digits(F(k)) ≈ k·log10(φ) − 0.5·log10(5) + 1.
func (e *Engine) EstimateIndexForDigits(d uint64) uint64 {
	if d <= 1 {
		return 0
	}
	return uint64(math.Ceil((float64(d-1) + halfLog10Five) / log10Phi))
}

// ValueAtIndex returns F(n). Indices up to MaxFibUint64 are computed with
// machine words; larger ones run the doubling loop and check for cancellation
// before every bit.
func (e *Engine) ValueAtIndex(ctx context.Context, n uint64) (*big.Int, error) {
	if err := sequence.Checkpoint(ctx); err != nil {
		return nil, err
	}
	if n <= MaxFibUint64 {
		return new(big.Int).SetUint64(smallFib(n)), nil
	}

	s := acquireState()
	defer releaseState(s)

	useParallel := runtime.GOMAXPROCS(0) > 1 && e.parallelThreshold > 0
	return e.doublingLoop(ctx, n, s, useParallel)
}

func smallFib(n uint64) uint64 {
	var a, b uint64 = 0, 1
	for i := uint64(0); i < n; i++ {
		a, b = b, a+b
	}
	return a
}

// state holds the running pair and the scratch integers of the doubling loop.
type state struct {
	fk, fk1        *big.Int
	t1, t2, t3, t4 *big.Int
}

var statePool = sync.Pool{
	New: func() any {
		return &state{
			fk: new(big.Int), fk1: new(big.Int),
			t1: new(big.Int), t2: new(big.Int), t3: new(big.Int), t4: new(big.Int),
		}
	},
}

func acquireState() *state {
	s := statePool.Get().(*state)
	s.fk.SetInt64(0)
	s.fk1.SetInt64(1)
	return s
}

// releaseState returns s to the pool unless its buffers grew past a size
// worth keeping around.
func releaseState(s *state) {
	const maxPooledBits = 1 << 22
	if s.fk.BitLen() > maxPooledBits || s.t1.BitLen() > maxPooledBits {
		return
	}
	statePool.Put(s)
}

func (e *Engine) doublingLoop(ctx context.Context, n uint64, s *state, useParallel bool) (*big.Int, error) {
	numBits := bits.Len64(n)
	progress := sequence.NewBitProgress(sequence.ProgressFrom(ctx), numBits)

	for i := numBits - 1; i >= 0; i-- {
		if err := sequence.Checkpoint(ctx); err != nil {
			return nil, fmt.Errorf("fast doubling canceled at bit %d/%d: %w", i, numBits-1, err)
		}

		// t4 = 2·F(k+1) − F(k)
		s.t4.Lsh(s.fk1, 1).Sub(s.t4, s.fk)

		parallel := useParallel && s.fk1.BitLen() > e.parallelThreshold
		multiplyStep(s, parallel)

		// t1 = F(k+1)² + F(k)² = F(2k+1); t3 = F(2k)
		s.t1.Add(s.t1, s.t2)
		s.fk, s.fk1, s.t2, s.t3, s.t1 = s.t3, s.t1, s.fk, s.fk1, s.t2

		if (n>>uint(i))&1 == 1 {
			s.t4.Add(s.fk, s.fk1)
			s.fk, s.fk1, s.t4 = s.fk1, s.t4, s.fk
		}
		progress.Step(i)
	}
	return new(big.Int).Set(s.fk), nil
}

// multiplyStep computes t3 = F(k)·t4, t1 = F(k+1)² and t2 = F(k)². The
// destinations are disjoint and the sources are read-only, so the three
// products may run concurrently.
func multiplyStep(s *state, parallel bool) {
	if !parallel {
		s.t3.Mul(s.fk, s.t4)
		s.t1.Mul(s.fk1, s.fk1)
		s.t2.Mul(s.fk, s.fk)
		return
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.t3.Mul(s.fk, s.t4)
	}()
	go func() {
		defer wg.Done()
		s.t1.Mul(s.fk1, s.fk1)
	}()
	s.t2.Mul(s.fk, s.fk)
	wg.Wait()
}

// backends lists the engines this package contributes to a registry. Build
// tags may add entries.
var backends = map[string]sequence.Creator{
	sequence.DefaultBackend: func() sequence.Engine { return New() },
}

// Register adds every Fibonacci backend compiled into the binary to r.
func Register(r *sequence.Registry) {
	for name, creator := range backends {
		r.Register(sequence.Fibonacci, name, creator)
	}
}
