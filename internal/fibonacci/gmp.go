//go:build gmp

// GMP backend for Fibonacci, compiled only with -tags=gmp. It needs libgmp
// (libgmp-dev on Debian/Ubuntu, brew install gmp on macOS).

package fibonacci

import (
	"context"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/ncw/gmp"

	"github.com/agbru/megacalc/internal/sequence"
)

func init() {
	backends["gmp"] = func() sequence.Engine { return &GMPEngine{} }
}

// GMPEngine runs fast doubling on GMP integers. It pays off for very large
// indices, where GMP's assembly multiplication beats math/big; below that the
// cgo overhead dominates.
type GMPEngine struct{}

func (e *GMPEngine) Kind() sequence.Kind { return sequence.Fibonacci }
func (e *GMPEngine) Name() string        { return "gmp" }

func (e *GMPEngine) EstimateIndexForDigits(d uint64) uint64 {
	return New().EstimateIndexForDigits(d)
}

func (e *GMPEngine) ValueAtIndex(ctx context.Context, n uint64) (*big.Int, error) {
	if err := sequence.Checkpoint(ctx); err != nil {
		return nil, err
	}
	if n <= MaxFibUint64 {
		return new(big.Int).SetUint64(smallFib(n)), nil
	}

	a, b := gmp.NewInt(0), gmp.NewInt(1)
	t1, t2 := gmp.NewInt(0), gmp.NewInt(0)

	numBits := bits.Len64(n)
	progress := sequence.NewBitProgress(sequence.ProgressFrom(ctx), numBits)
	for i := numBits - 1; i >= 0; i-- {
		if err := sequence.Checkpoint(ctx); err != nil {
			return nil, fmt.Errorf("gmp fast doubling canceled at bit %d/%d: %w", i, numBits-1, err)
		}
		gmpDoublingStep(a, b, t1, t2)
		if (n>>uint(i))&1 == 1 {
			t1.Add(a, b)
			a.Set(b)
			b.Set(t1)
		}
		progress.Step(i)
	}
	return new(big.Int).SetBytes(a.Bytes()), nil
}

// gmpDoublingStep maps (a, b) = (F(k), F(k+1)) to (F(2k), F(2k+1)).
func gmpDoublingStep(a, b, t1, t2 *gmp.Int) {
	t1.MulUint32(b, 2)
	t1.Sub(t1, a)
	t1.Mul(a, t1)

	t2.Mul(a, a)
	a.Mul(b, b)
	t2.Add(t2, a)

	a.Set(t1)
	b.Set(t2)
}
