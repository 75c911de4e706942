package sequence

//go:generate mockgen -source=engine.go -destination=mocks/mock_engine.go -package=mocks

import (
	"context"
	"math/big"

	apperrors "github.com/agbru/megacalc/internal/errors"
)

// Engine evaluates one monotone non-decreasing integer sequence.
type Engine interface {
	// Kind reports the sequence this engine evaluates.
	Kind() Kind

	// Name returns the backend name (e.g. "big", "gmp").
	Name() string

	// ValueAtIndex returns the exact n-th term. Implementations call
	// Checkpoint between bounded sub-steps and return ctx.Err() promptly
	// once the context is done.
	ValueAtIndex(ctx context.Context, n uint64) (*big.Int, error)

	// EstimateIndexForDigits returns a cheap guess of the first index whose
	// term has at least d decimal digits. It only seeds the search.
	EstimateIndexForDigits(d uint64) uint64
}

// DigitScanner is implemented by engines that answer digit-mode requests by
// scanning values directly instead of searching over indices.
type DigitScanner interface {
	// FirstWithDigits returns the first term with at least d digits and the
	// index the engine assigns to it.
	FirstWithDigits(ctx context.Context, d uint64) (*big.Int, uint64, error)
}

// Compute evaluates req on engine. Index requests call ValueAtIndex; digit
// requests go through the engine's DigitScanner when it has one and through
// FindFirstWithDigits otherwise. The value is checked by GuardExact before it
// is returned.
//
// Parameters:
//   - ctx: The context for cancellation.
//   - engine: The engine matching req.Kind.
//   - req: The validated request.
//
// Returns:
//   - *big.Int: The exact value.
//   - uint64: The resolved index.
//   - error: An error if the computation failed or was canceled.
func Compute(ctx context.Context, engine Engine, req Request) (*big.Int, uint64, error) {
	if engine.Kind() != req.Kind {
		return nil, 0, apperrors.NewInputError("kind",
			"engine "+engine.Kind().String()+" cannot serve "+req.Kind.String(), req.Kind)
	}

	var (
		value *big.Int
		index uint64
		err   error
	)
	switch req.Mode {
	case ByIndex:
		index = req.Target
		value, err = engine.ValueAtIndex(ctx, req.Target)
	case ByDigits:
		if scanner, ok := engine.(DigitScanner); ok {
			value, index, err = scanner.FirstWithDigits(ctx, req.Target)
		} else {
			value, index, err = FindFirstWithDigits(ctx, engine, req.Target)
		}
	default:
		return nil, 0, apperrors.NewInputError("mode", "unknown mode", req.Mode)
	}
	if err != nil {
		return nil, 0, err
	}
	if err := GuardExact(req.Kind.String(), value); err != nil {
		return nil, 0, err
	}
	return value, index, nil
}
