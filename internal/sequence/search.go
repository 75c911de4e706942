package sequence

import (
	"context"
	"fmt"
	"math"
	"math/big"

	apperrors "github.com/agbru/megacalc/internal/errors"
)

// digitTarget answers "does v have at least d digits" by comparing against
// 10^(d-1) instead of rendering v in decimal.
type digitTarget struct {
	d     uint64
	floor *big.Int
}

func newDigitTarget(d uint64) digitTarget {
	floor := new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(d-1), nil)
	return digitTarget{d: d, floor: floor}
}

func (t digitTarget) met(v *big.Int) bool {
	if t.d == 1 {
		return true
	}
	return v.CmpAbs(t.floor) >= 0
}

// FindFirstWithDigits locates the first index whose term has at least d
// decimal digits. It evaluates the engine at its estimate, gallops away from
// it with a doubling gap until the target is bracketed, then binary-searches
// the boundary. The engine must be monotone non-decreasing.
//
// Parameters:
//   - ctx: The context for cancellation.
//   - engine: The engine to search.
//   - d: The minimum number of digits (at least 1).
//
// Returns:
//   - *big.Int: The first term with at least d digits.
//   - uint64: Its index.
//   - error: An InputError for d == 0, or the first evaluation error.
func FindFirstWithDigits(ctx context.Context, engine Engine, d uint64) (*big.Int, uint64, error) {
	if d == 0 {
		return nil, 0, apperrors.NewInputError("digits", "must be at least 1", d)
	}
	target := newDigitTarget(d)

	eval := func(n uint64) (*big.Int, error) {
		if err := Checkpoint(ctx); err != nil {
			return nil, err
		}
		v, err := engine.ValueAtIndex(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("digit search at index %d: %w", n, err)
		}
		return v, nil
	}

	// Every term has at least one digit, so index 0 is the first crossing.
	if d == 1 {
		v, err := eval(0)
		return v, 0, err
	}

	start := engine.EstimateIndexForDigits(d)
	v, err := eval(start)
	if err != nil {
		return nil, 0, err
	}

	// Bracket the crossing so that lo misses the target and hi meets it.
	var (
		lo, hi   uint64
		hiVal    *big.Int
		loExists = true
	)
	if target.met(v) {
		hi, hiVal = start, v
		gap := uint64(1)
		for {
			if hi == 0 {
				loExists = false
				break
			}
			next := uint64(0)
			if hi > gap {
				next = hi - gap
			}
			nv, err := eval(next)
			if err != nil {
				return nil, 0, err
			}
			if !target.met(nv) {
				lo = next
				break
			}
			hi, hiVal = next, nv
			gap = doubleGap(gap)
		}
	} else {
		lo = start
		gap := uint64(1)
		for {
			if lo > math.MaxUint64-gap {
				return nil, 0, apperrors.CalculationTooLargeError{
					Reason: "digit search overflowed the index range", Target: d, Limit: math.MaxUint64,
				}
			}
			next := lo + gap
			nv, err := eval(next)
			if err != nil {
				return nil, 0, err
			}
			if target.met(nv) {
				hi, hiVal = next, nv
				break
			}
			lo = next
			gap = doubleGap(gap)
		}
	}

	if !loExists {
		return hiVal, hi, nil
	}
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		mv, err := eval(mid)
		if err != nil {
			return nil, 0, err
		}
		if target.met(mv) {
			hi, hiVal = mid, mv
		} else {
			lo = mid
		}
	}
	return hiVal, hi, nil
}

func doubleGap(gap uint64) uint64 {
	if gap > math.MaxUint64/2 {
		return gap
	}
	return gap * 2
}
