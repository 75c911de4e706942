package factorial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/megacalc/internal/sequence"
)

func TestValueAtIndexKnownValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "1"},
		{1, "1"},
		{5, "120"},
		{10, "3628800"},
		{20, "2432902008176640000"},
		{21, "51090942171709440000"},
		{30, "265252859812191058636308480000000"},
	}
	engine := New()
	for _, tc := range tests {
		t.Run(fmt.Sprintf("N=%d", tc.n), func(t *testing.T) {
			t.Parallel()
			got, err := engine.ValueAtIndex(context.Background(), tc.n)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tc.want {
				t.Errorf("%d! = %s, want %s", tc.n, got, tc.want)
			}
		})
	}
}

type goldenData struct {
	N      uint64 `json:"n"`
	Result string `json:"result"`
}

func TestValueAtIndexAgainstGoldenFile(t *testing.T) {
	t.Parallel()
	raw, err := os.ReadFile(filepath.Join("testdata", "factorial_golden.json"))
	if err != nil {
		t.Fatalf("Failed to read golden file: %v. Did you run 'go run ./cmd/generate-golden'?", err)
	}
	var cases []goldenData
	if err := json.Unmarshal(raw, &cases); err != nil {
		t.Fatalf("Failed to decode golden file: %v", err)
	}

	engines := map[string]*Engine{
		"sequential": New(WithParallelThreshold(0)),
		"parallel":   New(WithParallelThreshold(leafSize)),
	}
	for name, engine := range engines {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, tc := range cases {
				got, err := engine.ValueAtIndex(context.Background(), tc.N)
				if err != nil {
					t.Fatalf("N=%d: %v", tc.N, err)
				}
				if got.String() != tc.Result {
					t.Errorf("Mismatch for N=%d", tc.N)
				}
			}
		})
	}
}

func TestMulRangeAgreement(t *testing.T) {
	t.Parallel()
	engine := New(WithParallelThreshold(leafSize))
	for _, n := range []uint64{63, 64, 65, 127, 129, 3000, 10007} {
		got, err := engine.ValueAtIndex(context.Background(), n)
		if err != nil {
			t.Fatal(err)
		}
		want := new(big.Int).MulRange(1, int64(n))
		if got.Cmp(want) != 0 {
			t.Errorf("%d! disagrees with MulRange", n)
		}
	}
}

// TestRatioProperty checks n!/(n−1)! = n.
func TestRatioProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	engine := New()
	ctx := context.Background()

	properties.Property("n! = n·(n−1)!", prop.ForAll(
		func(n uint64) bool {
			fn, err1 := engine.ValueAtIndex(ctx, n)
			fnMinus1, err2 := engine.ValueAtIndex(ctx, n-1)
			if err1 != nil || err2 != nil {
				return false
			}
			q, r := new(big.Int).QuoRem(fn, fnMinus1, new(big.Int))
			return r.Sign() == 0 && q.Cmp(new(big.Int).SetUint64(n)) == 0
		},
		gen.UInt64Range(1, 5000),
	))

	properties.TestingRun(t)
}

func TestValueAtIndexCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ValueAtIndex(ctx, 100_000)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestValueAtIndexCanceledMidway(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var reports atomic.Int32
	ctx = sequence.WithProgress(ctx, func(float64) {
		if reports.Add(1) == 3 {
			cancel()
		}
	})
	_, err := New(WithParallelThreshold(0)).ValueAtIndex(ctx, 200_000)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDigitSearchFirstCrossing(t *testing.T) {
	t.Parallel()
	engine := New()
	ctx := context.Background()

	firstIndex := map[uint64]uint64{}
	f := big.NewInt(1)
	for n := uint64(0); n <= 400; n++ {
		if n > 0 {
			f.Mul(f, new(big.Int).SetUint64(n))
		}
		d := sequence.DigitCount(f)
		for k := uint64(1); k <= d; k++ {
			if _, ok := firstIndex[k]; !ok {
				firstIndex[k] = n
			}
		}
	}

	for d := uint64(1); d <= 500; d += 7 {
		v, idx, err := sequence.FindFirstWithDigits(ctx, engine, d)
		if err != nil {
			t.Fatalf("d=%d: %v", d, err)
		}
		if idx != firstIndex[d] {
			t.Errorf("d=%d: index %d, want %d", d, idx, firstIndex[d])
		}
		if sequence.DigitCount(v) < d {
			t.Errorf("d=%d: value has %d digits", d, sequence.DigitCount(v))
		}
	}
}

func TestEstimateIndexForDigits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    uint64
		want uint64
	}{
		{1, 0},
		{2, 4},  // 4! = 24
		{3, 5},  // 5! = 120
		{7, 10}, // 10! = 3628800
		{158, 100},
	}
	engine := New()
	for _, tt := range tests {
		got := engine.EstimateIndexForDigits(tt.d)
		diff := int64(got) - int64(tt.want)
		if diff < -1 || diff > 1 {
			t.Errorf("EstimateIndexForDigits(%d) = %d, want about %d", tt.d, got, tt.want)
		}
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	r := sequence.NewRegistry()
	Register(r)
	if got := r.Backends(sequence.Factorial); len(got) == 0 || got[0] != sequence.DefaultBackend {
		t.Errorf("Backends() = %v", got)
	}
}
