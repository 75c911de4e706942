//go:build gmp

package factorial

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ncw/gmp"

	"github.com/agbru/megacalc/internal/sequence"
)

func init() {
	backends["gmp"] = func() sequence.Engine { return &GMPEngine{} }
}

// GMPEngine runs binary splitting on GMP integers, sequentially.
type GMPEngine struct{}

func (e *GMPEngine) Kind() sequence.Kind { return sequence.Factorial }
func (e *GMPEngine) Name() string        { return "gmp" }

func (e *GMPEngine) EstimateIndexForDigits(d uint64) uint64 {
	return estimateIndexForDigits(d)
}

func (e *GMPEngine) ValueAtIndex(ctx context.Context, n uint64) (*big.Int, error) {
	if err := sequence.Checkpoint(ctx); err != nil {
		return nil, err
	}
	if n <= MaxFactUint64 {
		return new(big.Int).SetUint64(smallFactorial(n)), nil
	}
	progress := sequence.NewLinearProgress(sequence.ProgressFrom(ctx), n-1)
	p, err := gmpProduct(ctx, 2, n, progress)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(p.Bytes()), nil
}

func gmpProduct(ctx context.Context, lo, hi uint64, progress *sequence.LinearProgress) (*gmp.Int, error) {
	if err := sequence.Checkpoint(ctx); err != nil {
		return nil, fmt.Errorf("gmp binary splitting canceled at [%d, %d]: %w", lo, hi, err)
	}
	if hi-lo < leafSize {
		acc, t := gmp.NewInt(1), gmp.NewInt(0)
		for k := lo; k <= hi; k++ {
			acc.Mul(acc, t.SetInt64(int64(k)))
		}
		progress.Add(hi - lo + 1)
		return acc, nil
	}
	mid := lo + (hi-lo)/2
	left, err := gmpProduct(ctx, lo, mid, progress)
	if err != nil {
		return nil, err
	}
	right, err := gmpProduct(ctx, mid+1, hi, progress)
	if err != nil {
		return nil, err
	}
	return left.Mul(left, right), nil
}
