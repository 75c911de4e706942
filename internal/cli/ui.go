// The cli package renders megacalc's terminal output: the progress spinner
// shown during a governed run, the truncated result with its metadata, the
// estimation report and the timestamped result file.
package cli

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/ui"
)

const (
	// MaxDisplayChars is the number of result characters printed before the
	// value is truncated to its first and last MaxDisplayChars/2 digits.
	MaxDisplayChars = 1000
	// ProgressRefreshRate defines the refresh frequency of the spinner.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40

	bytesPerMB = 1024 * 1024
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// FormatResult renders v for the console. Values longer than maxChars are
// cut to their first and last maxChars/2 digits.
//
// Parameters:
//   - v: The exact result.
//   - maxChars: The display budget, usually MaxDisplayChars.
//
// Returns:
//   - string: "Result (N digits):" followed by the value on its own line.
func FormatResult(v *big.Int, maxChars int) string {
	s := v.String()
	digits := sequence.DigitCount(v)
	if len(s) <= maxChars {
		return fmt.Sprintf("Result (%d digits):\n%s", digits, s)
	}
	half := maxChars / 2
	return fmt.Sprintf("Result (%d digits, truncated):\n%s...%s", digits, s[:half], s[len(s)-half:])
}

// FormatMetadata renders the execution time and the peak memory sample.
func FormatMetadata(elapsed time.Duration, peakMemory uint64) string {
	return fmt.Sprintf("\nMetadata:\n  Execution time: %.3f seconds\n  Peak RAM usage: %.2f MB",
		elapsed.Seconds(), float64(peakMemory)/bytesPerMB)
}

// DisplayResult prints a successful calculation with the current theme.
//
// Parameters:
//   - out: The io.Writer for the output.
//   - req: The request that produced res.
//   - res: The calculation result.
func DisplayResult(out io.Writer, req sequence.Request, res sequence.Result) {
	t := ui.GetCurrentTheme()
	fmt.Fprintf(out, "%s\n", t.Sprint(ui.Bold, "--- ", req.Kind, " ---"))
	if req.Mode == sequence.ByDigits {
		fmt.Fprintf(out, "First member with at least %s digits found at index %s.\n",
			t.Sprint(ui.Warning, formatNumberString(fmt.Sprint(req.Target))),
			t.Sprint(ui.Info, formatNumberString(fmt.Sprint(res.ResolvedIndex))))
	}

	lines := strings.SplitN(FormatResult(res.Value, MaxDisplayChars), "\n", 2)
	fmt.Fprintf(out, "%s\n%s\n", lines[0], t.Sprint(ui.Success, lines[1]))

	fmt.Fprintf(out, "%s\n", FormatMetadata(res.Elapsed, res.PeakMemory))
	fmt.Fprintf(out, "  Digits: %s\n", t.Sprint(ui.Secondary, formatNumberString(fmt.Sprint(res.DigitCount))))
}

// DisplayQuietResult prints only the exact value, for scripting.
func DisplayQuietResult(out io.Writer, res sequence.Result) {
	fmt.Fprintln(out, res.Value.String())
}

// formatNumberString inserts thousand separators into a numeric string.
func formatNumberString(s string) string {
	if len(s) == 0 {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix = "-"
		s = s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	var builder strings.Builder
	builder.Grow(len(prefix) + n + (n-1)/3)
	builder.WriteString(prefix)

	firstGroupLen := n % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}
	builder.WriteString(s[:firstGroupLen])
	for i := firstGroupLen; i < n; i += 3 {
		builder.WriteByte(',')
		builder.WriteString(s[i : i+3])
	}
	return builder.String()
}
