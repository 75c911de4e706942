package sequence_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/sequence/mocks"
)

// stepEngine yields (n%scale + 1) * 10^(n/scale), so the first term with d
// digits sits at index (d-1)*scale.
type stepEngine struct {
	scale    uint64
	estimate func(d uint64) uint64
	calls    int
}

func (e *stepEngine) Kind() sequence.Kind { return sequence.Factorial }
func (e *stepEngine) Name() string        { return "step" }

func (e *stepEngine) ValueAtIndex(ctx context.Context, n uint64) (*big.Int, error) {
	e.calls++
	if err := sequence.Checkpoint(ctx); err != nil {
		return nil, err
	}
	v := new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(n/e.scale), nil)
	return v.Mul(v, new(big.Int).SetUint64(n%e.scale+1)), nil
}

func (e *stepEngine) EstimateIndexForDigits(d uint64) uint64 { return e.estimate(d) }

// firstCrossingByScan is the reference answer: linear scan from zero.
func firstCrossingByScan(t *testing.T, e sequence.Engine, d uint64) uint64 {
	t.Helper()
	for n := uint64(0); ; n++ {
		v, err := e.ValueAtIndex(context.Background(), n)
		if err != nil {
			t.Fatal(err)
		}
		if sequence.DigitCount(v) >= d {
			return n
		}
	}
}

func TestFindFirstWithDigitsMatchesScan(t *testing.T) {
	t.Parallel()
	estimators := map[string]func(uint64) uint64{
		"exact":      func(d uint64) uint64 { return (d - 1) * 3 },
		"too low":    func(uint64) uint64 { return 0 },
		"too high":   func(d uint64) uint64 { return d * 50 },
		"off by one": func(d uint64) uint64 { return (d-1)*3 + 1 },
	}
	for name, est := range estimators {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for d := uint64(1); d <= 30; d++ {
				engine := &stepEngine{scale: 3, estimate: est}
				v, idx, err := sequence.FindFirstWithDigits(context.Background(), engine, d)
				if err != nil {
					t.Fatalf("d=%d: %v", d, err)
				}
				want := firstCrossingByScan(t, &stepEngine{scale: 3, estimate: est}, d)
				if idx != want {
					t.Errorf("d=%d: index %d, want %d", d, idx, want)
				}
				if sequence.DigitCount(v) < d {
					t.Errorf("d=%d: value %v has too few digits", d, v)
				}
			}
		})
	}
}

func TestFindFirstWithDigitsRejectsZero(t *testing.T) {
	t.Parallel()
	_, _, err := sequence.FindFirstWithDigits(context.Background(), &stepEngine{scale: 1}, 0)
	var inputErr apperrors.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestFindFirstWithDigitsCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := &stepEngine{scale: 1, estimate: func(uint64) uint64 { return 0 }}
	_, _, err := sequence.FindFirstWithDigits(ctx, engine, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if engine.calls != 0 {
		t.Errorf("engine should not be evaluated after cancellation, got %d calls", engine.calls)
	}
}

func TestFindFirstWithDigitsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("first-crossing law", prop.ForAll(
		func(d uint64, scale uint64, guess uint64) bool {
			engine := &stepEngine{scale: scale, estimate: func(uint64) uint64 { return guess }}
			v, idx, err := sequence.FindFirstWithDigits(context.Background(), engine, d)
			if err != nil || sequence.DigitCount(v) < d {
				return false
			}
			if idx == 0 {
				return true
			}
			prev, err := engine.ValueAtIndex(context.Background(), idx-1)
			return err == nil && sequence.DigitCount(prev) < d
		},
		gen.UInt64Range(1, 60),
		gen.UInt64Range(1, 5),
		gen.UInt64Range(0, 400),
	))

	properties.TestingRun(t)
}

func TestComputeDispatch(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Kind().Return(sequence.Fibonacci).AnyTimes()
	engine.EXPECT().ValueAtIndex(gomock.Any(), uint64(10)).Return(big.NewInt(55), nil)

	v, idx, err := sequence.Compute(context.Background(), engine,
		sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 10})
	if err != nil || v.Int64() != 55 || idx != 10 {
		t.Fatalf("Compute() = %v, %d, %v", v, idx, err)
	}

	_, _, err = sequence.Compute(context.Background(), engine,
		sequence.Request{Kind: sequence.Prime, Mode: sequence.ByIndex, Target: 10})
	var inputErr apperrors.InputError
	if !errors.As(err, &inputErr) {
		t.Errorf("kind mismatch should be an InputError, got %v", err)
	}
}

func TestComputeRejectsNilValue(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Kind().Return(sequence.Factorial).AnyTimes()
	engine.EXPECT().ValueAtIndex(gomock.Any(), gomock.Any()).Return(nil, nil)

	_, _, err := sequence.Compute(context.Background(), engine,
		sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByIndex, Target: 3})
	var precisionErr apperrors.PrecisionError
	if !errors.As(err, &precisionErr) {
		t.Errorf("expected PrecisionError, got %v", err)
	}
}

type scanningEngine struct {
	*mocks.MockEngine
	*mocks.MockDigitScanner
}

func TestComputeUsesDigitScanner(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	engine := mocks.NewMockEngine(ctrl)
	scanner := mocks.NewMockDigitScanner(ctrl)
	engine.EXPECT().Kind().Return(sequence.Prime).AnyTimes()
	scanner.EXPECT().FirstWithDigits(gomock.Any(), uint64(3)).Return(big.NewInt(101), uint64(1), nil)

	v, idx, err := sequence.Compute(context.Background(), scanningEngine{engine, scanner},
		sequence.Request{Kind: sequence.Prime, Mode: sequence.ByDigits, Target: 3})
	if err != nil || v.Int64() != 101 || idx != 1 {
		t.Fatalf("Compute() = %v, %d, %v", v, idx, err)
	}
}
