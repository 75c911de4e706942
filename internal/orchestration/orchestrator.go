// Package orchestration drives one CLI calculation: the optional forecast,
// the governed run behind a progress display, and the rendering of the
// outcome.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agbru/megacalc/internal/cli"
	"github.com/agbru/megacalc/internal/config"
	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/service"
)

// Clock returns the timestamp given to result files. Tests replace it.
var Clock = time.Now

// NeedsEstimation reports whether a forecast precedes the run: always for
// benchmark and dry runs, and automatically when the result is expected to
// exceed sequence.LargeDigitThreshold digits.
//
// Returns:
//   - bool: Whether to estimate.
//   - bool: Whether the estimation was triggered by the expected size alone.
//   - uint64: The expected digit count of the result.
func NeedsEstimation(req sequence.Request, cfg config.AppConfig) (estimate, automatic bool, expectedDigits uint64) {
	expectedDigits = sequence.EstimateDigits(req.Kind, req.Mode, req.Target)
	large := expectedDigits > sequence.LargeDigitThreshold
	automatic = large && !cfg.Benchmark && !cfg.DryRun
	return large || cfg.Benchmark || cfg.DryRun, automatic, expectedDigits
}

// Execute runs req through svc and writes everything the user sees to out.
//
// Parameters:
//   - ctx: The context for cancellation, usually tied to SIGINT.
//   - svc: The calculation service.
//   - req: The validated request.
//   - cfg: The resolved configuration.
//   - out: The io.Writer for the report.
//
// Returns:
//   - int: An exit code from the apperrors package.
func Execute(ctx context.Context, svc service.Service, req sequence.Request, cfg config.AppConfig, out io.Writer) int {
	colors := cli.CLIColorProvider{}
	limits := cfg.ToLimits()
	text := !cfg.JSONOutput && !cfg.Quiet

	if estimate, automatic, digits := NeedsEstimation(req, cfg); estimate {
		if automatic && text {
			cli.DisplayAutomaticEstimation(out, digits)
		}
		if text {
			fmt.Fprintln(out, "Running micro-benchmark...")
		}
		est, err := svc.Estimate(ctx, req)
		if err != nil {
			return apperrors.HandleCalculationError(err, 0, out, colors)
		}
		est.WillExceed = est.Predicted > limits.MaxDuration

		if cfg.JSONOutput && cfg.DryRun {
			if err := cli.DisplayEstimateJSON(out, req, est, limits.MaxDuration); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				return apperrors.ExitErrorGeneric
			}
		} else if !cfg.Quiet {
			cli.DisplayEstimate(out, est, limits.MaxDuration, req.Strict)
		}
		if est.WillExceed && req.Strict {
			return apperrors.ExitErrorTooLarge
		}
		if cfg.DryRun {
			if text {
				fmt.Fprintln(out, "Dry run: No calculation performed.")
			}
			return apperrors.ExitSuccess
		}
		// The forecast above already cleared the limit.
		req.Strict = false
	}

	display := cli.StartProgress(out, req.String(), text && cli.IsTerminal(out))
	start := time.Now()
	res, err := svc.Run(sequence.WithProgress(ctx, display.Report), req, limits)
	display.Stop(err == nil)
	if err != nil {
		return apperrors.HandleCalculationError(err, time.Since(start), out, colors)
	}

	output := cli.OutputConfig{Dir: cfg.OutputDir, Compress: cfg.Compress, Quiet: cfg.Quiet, JSON: cfg.JSONOutput}
	if err := cli.DisplayResultWithConfig(out, req, res, output, Clock()); err != nil {
		fmt.Fprintf(out, "Error: failed to save result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
