package sequence

import (
	"context"
	"math"
	"testing"
)

func TestProgressContext(t *testing.T) {
	t.Parallel()
	ProgressFrom(context.Background())(0.5) // no-op must not panic

	var got float64
	ctx := WithProgress(context.Background(), func(p float64) { got = p })
	ProgressFrom(ctx)(0.25)
	if got != 0.25 {
		t.Errorf("reporter not attached, got %v", got)
	}
	if WithProgress(ctx, nil) != ctx {
		t.Error("nil reporter should leave the context unchanged")
	}
}

func TestBitProgressReachesOne(t *testing.T) {
	t.Parallel()
	var reports []float64
	numBits := 20
	p := NewBitProgress(func(v float64) { reports = append(reports, v) }, numBits)
	for i := numBits - 1; i >= 0; i-- {
		p.Step(i)
	}
	if len(reports) == 0 {
		t.Fatal("expected progress reports")
	}
	if last := reports[len(reports)-1]; math.Abs(last-1) > 1e-9 {
		t.Errorf("final progress = %v, want 1", last)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress decreased at %d: %v", i, reports)
		}
	}
}

func TestLinearProgress(t *testing.T) {
	t.Parallel()
	var reports []float64
	p := NewLinearProgress(func(v float64) { reports = append(reports, v) }, 1000)
	for i := uint64(1); i <= 1000; i++ {
		p.Update(i)
	}
	if len(reports) > 101 {
		t.Errorf("expected throttled reports, got %d", len(reports))
	}
	if reports[len(reports)-1] != 1 {
		t.Errorf("final progress = %v", reports[len(reports)-1])
	}
	NewLinearProgress(nil, 0).Update(5) // zero total is ignored
}
