// Package sequence defines the shared vocabulary of megacalc's numeric core:
// sequence kinds, request modes, the Engine capability set implemented by the
// Fibonacci, factorial and prime engines, and the generic first-crossing
// digit search written once against that interface.
package sequence

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	apperrors "github.com/agbru/megacalc/internal/errors"
)

// Kind selects the sequence an engine evaluates.
type Kind int

const (
	Fibonacci Kind = iota
	Factorial
	Prime
)

// Kinds lists every supported sequence in display order.
var Kinds = []Kind{Fibonacci, Factorial, Prime}

func (k Kind) String() string {
	switch k {
	case Fibonacci:
		return "fibonacci"
	case Factorial:
		return "factorial"
	case Prime:
		return "prime"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a user supplied name or alias into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fib", "fibonacci":
		return Fibonacci, nil
	case "fact", "factorial":
		return Factorial, nil
	case "prime", "primes":
		return Prime, nil
	}
	return 0, apperrors.NewInputError("kind", fmt.Sprintf("unknown sequence %q (want fib, fact or prime)", s), s)
}

// Mode tells whether Target is an index or a minimum digit count.
type Mode int

const (
	ByIndex Mode = iota
	ByDigits
)

func (m Mode) String() string {
	if m == ByDigits {
		return "digits"
	}
	return "index"
}

// Request is a validated calculation request. Build it with NewRequest.
type Request struct {
	Kind   Kind
	Mode   Mode
	Target uint64
	Strict bool
}

// NewRequest validates the raw inputs and builds a Request. Exactly one of
// index and digits must be non-nil; index must be non-negative and digits at
// least one.
//
// Parameters:
//   - kind: The sequence to evaluate.
//   - index: The requested index, or nil for digit mode.
//   - digits: The minimum digit count, or nil for index mode.
//   - strict: Whether an over-limit prediction aborts the run.
//
// Returns:
//   - Request: The validated request.
//   - error: An InputError when the inputs are inconsistent.
func NewRequest(kind Kind, index, digits *int64, strict bool) (Request, error) {
	switch {
	case index != nil && digits != nil:
		return Request{}, apperrors.NewInputError("mode", "index and digits are mutually exclusive", nil)
	case index == nil && digits == nil:
		return Request{}, apperrors.NewInputError("mode", "either index or digits must be provided", nil)
	case index != nil:
		if *index < 0 {
			return Request{}, apperrors.NewInputError("index", "must not be negative", *index)
		}
		return Request{Kind: kind, Mode: ByIndex, Target: uint64(*index), Strict: strict}, nil
	default:
		if *digits < 1 {
			return Request{}, apperrors.NewInputError("digits", "must be at least 1", *digits)
		}
		return Request{Kind: kind, Mode: ByDigits, Target: uint64(*digits), Strict: strict}, nil
	}
}

func (r Request) String() string {
	return fmt.Sprintf("%s by %s %d", r.Kind, r.Mode, r.Target)
}

// Result is the outcome of a successful governed calculation. It is built once
// and never mutated.
type Result struct {
	// Value is the exact result.
	Value *big.Int
	// ResolvedIndex is the index that produced Value. For prime digit mode it
	// is the offset of Value from 10^(d-1).
	ResolvedIndex uint64
	// DigitCount is the decimal length of Value.
	DigitCount uint64
	// Elapsed is the wall-clock time measured by the governor.
	Elapsed time.Duration
	// PeakMemory is the highest memory sample taken by the governor, in bytes.
	PeakMemory uint64
}

// DigitCount returns the exact number of decimal digits of |v|. Zero has one digit.
func DigitCount(v *big.Int) uint64 {
	if v == nil {
		return 0
	}
	s := v.Text(10)
	if v.Sign() < 0 {
		return uint64(len(s) - 1)
	}
	return uint64(len(s))
}
