package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/service"
	"github.com/agbru/megacalc/internal/ui"
)

// DisplayAutomaticEstimation announces that estimation runs because the
// result is expected to be large.
func DisplayAutomaticEstimation(out io.Writer, expectedDigits uint64) {
	fmt.Fprintf(out, "Automatic estimation: Result expected to have ~%s digits (>%s threshold).\n",
		formatNumberString(fmt.Sprint(expectedDigits)), formatNumberString(fmt.Sprint(sequence.LargeDigitThreshold)))
}

// DisplayEstimate prints the forecast and, when it exceeds limit, a warning.
//
// Parameters:
//   - out: The output writer.
//   - est: The forecast.
//   - limit: The configured time limit.
//   - strict: Whether the run will be aborted on an over-limit forecast.
func DisplayEstimate(out io.Writer, est service.Estimate, limit time.Duration, strict bool) {
	t := ui.GetCurrentTheme()
	fmt.Fprintf(out, "Estimated execution time: %s seconds (model %s)\n",
		t.Sprint(ui.Warning, fmt.Sprintf("%.3f", est.Predicted.Seconds())), est.Model.Transform)
	if !est.WillExceed {
		return
	}
	msg := fmt.Sprintf("Estimated time (%.3fs) exceeds limit (%s).", est.Predicted.Seconds(), limit)
	if strict {
		fmt.Fprintf(out, "%s %s Aborting (--strict).\n", t.Sprint(ui.Error, "Error:"), msg)
		return
	}
	fmt.Fprintf(out, "%s %s\n", t.Sprint(ui.Warning, "Warning:"), msg)
}

// DisplayEstimateJSON prints the forecast as a models.EstimateResult document.
func DisplayEstimateJSON(out io.Writer, req sequence.Request, est service.Estimate, limit time.Duration) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(service.EstimateDocument(req, est, limit))
}
