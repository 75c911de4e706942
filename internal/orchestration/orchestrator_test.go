package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/megacalc/internal/config"
	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/estimator"
	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/service"
	"github.com/agbru/megacalc/internal/service/mocks"
	"github.com/agbru/megacalc/internal/ui"
	"github.com/agbru/megacalc/pkg/models"
)

func setup(t *testing.T) (*mocks.MockService, config.AppConfig) {
	t.Helper()
	original := ui.GetCurrentTheme()
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.SetCurrentTheme(original) })

	cfg := config.Default()
	cfg.OutputDir = ""
	return mocks.NewMockService(gomock.NewController(t)), cfg
}

func smallResult() sequence.Result {
	return sequence.Result{Value: big.NewInt(1_000_000_007), ResolvedIndex: 100, DigitCount: 10}
}

func TestNeedsEstimation(t *testing.T) {
	t.Parallel()
	fib := sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 100}
	bigFib := sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 100_000}
	cfg := config.Default()

	estimate, automatic, digits := NeedsEstimation(fib, cfg)
	assert.False(t, estimate)
	assert.False(t, automatic)
	assert.Equal(t, uint64(21), digits)

	estimate, automatic, _ = NeedsEstimation(bigFib, cfg)
	assert.True(t, estimate)
	assert.True(t, automatic)

	cfg.Benchmark = true
	estimate, automatic, _ = NeedsEstimation(fib, cfg)
	assert.True(t, estimate)
	assert.False(t, automatic)

	estimate, automatic, _ = NeedsEstimation(bigFib, cfg)
	assert.True(t, estimate)
	assert.False(t, automatic, "explicit estimation is not announced as automatic")

	cfg.Benchmark, cfg.DryRun = false, true
	estimate, _, _ = NeedsEstimation(fib, cfg)
	assert.True(t, estimate)
}

func TestExecuteSmallRequest(t *testing.T) {
	svc, cfg := setup(t)
	req := sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 100}
	svc.EXPECT().Run(gomock.Any(), req, cfg.ToLimits()).Return(smallResult(), nil)

	var buf bytes.Buffer
	code := Execute(context.Background(), svc, req, cfg, &buf)
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, buf.String(), "--- fibonacci ---")
	assert.NotContains(t, buf.String(), "micro-benchmark")
	assert.NotContains(t, buf.String(), "Full result saved to")
}

func TestExecuteAutomaticEstimation(t *testing.T) {
	svc, cfg := setup(t)
	req := sequence.Request{Kind: sequence.Prime, Mode: sequence.ByDigits, Target: 20_000, Strict: true}
	relaxed := req
	relaxed.Strict = false

	gomock.InOrder(
		svc.EXPECT().Estimate(gomock.Any(), req).Return(service.Estimate{
			Predicted: 2 * time.Second,
			Model:     estimator.Model{Transform: estimator.NLogN},
		}, nil),
		svc.EXPECT().Run(gomock.Any(), relaxed, gomock.Any()).Return(smallResult(), nil),
	)

	var buf bytes.Buffer
	code := Execute(context.Background(), svc, req, cfg, &buf)
	assert.Equal(t, apperrors.ExitSuccess, code)
	out := buf.String()
	assert.Contains(t, out, "Automatic estimation: Result expected to have ~20,000 digits (>10,000 threshold).\n")
	assert.Contains(t, out, "Estimated execution time: 2.000 seconds (model n·ln(n))\n")
	assert.Contains(t, out, "First member with at least 20,000 digits found at index 100.")
}

func TestExecuteDryRun(t *testing.T) {
	svc, cfg := setup(t)
	cfg.DryRun = true
	req := sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByIndex, Target: 50}
	svc.EXPECT().Estimate(gomock.Any(), req).Return(service.Estimate{Predicted: time.Millisecond}, nil)

	var buf bytes.Buffer
	code := Execute(context.Background(), svc, req, cfg, &buf)
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, buf.String(), "Dry run: No calculation performed.\n")
	assert.NotContains(t, buf.String(), "Automatic estimation")
}

func TestExecuteDryRunJSON(t *testing.T) {
	svc, cfg := setup(t)
	cfg.DryRun, cfg.JSONOutput = true, true
	cfg.Timeout = time.Second
	req := sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByIndex, Target: 50}
	svc.EXPECT().Estimate(gomock.Any(), req).Return(service.Estimate{Predicted: 3 * time.Second, ExpectedDigits: 65}, nil)

	var buf bytes.Buffer
	code := Execute(context.Background(), svc, req, cfg, &buf)
	assert.Equal(t, apperrors.ExitSuccess, code)

	var doc models.EstimateResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.True(t, doc.WillExceed, "the forecast is compared with the configured timeout")
	assert.InDelta(t, 1000.0, doc.LimitMS, 1e-9)
}

func TestExecuteStrictOverLimit(t *testing.T) {
	svc, cfg := setup(t)
	cfg.Benchmark = true
	cfg.Timeout = time.Second
	req := sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 10, Strict: true}
	svc.EXPECT().Estimate(gomock.Any(), req).Return(service.Estimate{Predicted: time.Minute}, nil)

	var buf bytes.Buffer
	code := Execute(context.Background(), svc, req, cfg, &buf)
	assert.Equal(t, apperrors.ExitErrorTooLarge, code)
	assert.Contains(t, buf.String(), "Error: Estimated time (60.000s) exceeds limit (1s). Aborting (--strict).")
}

func TestExecuteOverLimitWarnsAndRuns(t *testing.T) {
	svc, cfg := setup(t)
	cfg.Benchmark = true
	cfg.Timeout = time.Second
	req := sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 10}
	svc.EXPECT().Estimate(gomock.Any(), req).Return(service.Estimate{Predicted: time.Minute}, nil)
	svc.EXPECT().Run(gomock.Any(), req, gomock.Any()).Return(sequence.Result{Value: big.NewInt(55), ResolvedIndex: 10, DigitCount: 2}, nil)

	var buf bytes.Buffer
	code := Execute(context.Background(), svc, req, cfg, &buf)
	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, buf.String(), "Warning: Estimated time (60.000s) exceeds limit (1s).")
	assert.Contains(t, buf.String(), "Result (2 digits):\n55\n")
}

func TestExecuteFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"timeout", apperrors.TimeoutError{Limit: time.Second, Elapsed: time.Second}, apperrors.ExitErrorTimeout},
		{"memory", apperrors.ResourceExhaustedError{Limit: 1 << 20, Observed: 2 << 20}, apperrors.ExitErrorResource},
		{"canceled", context.Canceled, apperrors.ExitErrorCanceled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, cfg := setup(t)
			req := sequence.Request{Kind: sequence.Fibonacci, Mode: sequence.ByIndex, Target: 10}
			svc.EXPECT().Run(gomock.Any(), req, gomock.Any()).Return(sequence.Result{}, tc.err)

			var buf bytes.Buffer
			assert.Equal(t, tc.code, Execute(context.Background(), svc, req, cfg, &buf))
			assert.Contains(t, buf.String(), "Status:")
		})
	}
}

func TestExecuteEstimateFailure(t *testing.T) {
	svc, cfg := setup(t)
	cfg.Benchmark = true
	req := sequence.Request{Kind: sequence.Prime, Mode: sequence.ByIndex, Target: 10}
	svc.EXPECT().Estimate(gomock.Any(), req).Return(service.Estimate{}, apperrors.NewConfigError("no %s engine", "prime"))

	var buf bytes.Buffer
	assert.Equal(t, apperrors.ExitErrorConfig, Execute(context.Background(), svc, req, cfg, &buf))
}

func TestExecuteWritesResultFile(t *testing.T) {
	svc, cfg := setup(t)
	cfg.OutputDir = t.TempDir()
	cfg.Quiet = true
	original := Clock
	Clock = func() time.Time { return time.Date(2026, 1, 19, 15, 30, 45, 0, time.UTC) }
	t.Cleanup(func() { Clock = original })

	req := sequence.Request{Kind: sequence.Factorial, Mode: sequence.ByIndex, Target: 5}
	svc.EXPECT().Run(gomock.Any(), req, gomock.Any()).Return(sequence.Result{Value: big.NewInt(120), ResolvedIndex: 5, DigitCount: 3}, nil)

	var buf bytes.Buffer
	require.Equal(t, apperrors.ExitSuccess, Execute(context.Background(), svc, req, cfg, &buf))
	assert.Equal(t, "120\n", buf.String())

	_, err := os.Stat(filepath.Join(cfg.OutputDir, "20260119_153045_factorial.txt"))
	assert.NoError(t, err)
}
