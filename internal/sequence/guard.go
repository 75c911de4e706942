package sequence

import (
	"context"
	"math/big"

	apperrors "github.com/agbru/megacalc/internal/errors"
)

// GuardExact rejects any value that is not an exact integer. It is applied to
// engine inputs and outputs so that a floating-point intermediate can never
// reach a result.
func GuardExact(where string, v any) error {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return apperrors.PrecisionError{Where: where, Value: v}
		}
		return nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case *big.Rat:
		if x != nil && x.IsInt() {
			return nil
		}
	}
	return apperrors.PrecisionError{Where: where, Value: v}
}

// GuardInputs applies GuardExact to every value and returns the first violation.
func GuardInputs(where string, values ...any) error {
	for _, v := range values {
		if err := GuardExact(where, v); err != nil {
			return err
		}
	}
	return nil
}

// Checkpoint is the cooperative cancellation point engines call between
// bounded sub-steps.
func Checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
