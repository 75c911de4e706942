package config

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/agbru/megacalc/internal/ui"
)

// WriteUsage prints a colored usage message for fs.
//
// Parameters:
//   - out: The destination writer.
//   - useLine: The command synopsis, e.g. "megacalc <fib|fact|prime> [flags]".
//   - fs: The flags to document.
func WriteUsage(out io.Writer, useLine string, fs *pflag.FlagSet) {
	t := ui.GetCurrentTheme()

	fmt.Fprintf(out, "\n%s\n", t.Sprint(ui.Bold, "Mega Calculator"))
	fmt.Fprintf(out, "Exact Fibonacci numbers, factorials and primes, by index or by digit count.\n\n")
	fmt.Fprintf(out, "%s\n  %s\n\n%s\n", t.Sprint(ui.Warning, "Usage:"), useLine, t.Sprint(ui.Warning, "Flags:"))

	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name, usage := pflag.UnquoteUsage(f)
		flagSig := "--" + f.Name
		if f.Shorthand != "" {
			flagSig = "-" + f.Shorthand + ", " + flagSig
		}
		if name != "" {
			flagSig += " " + name
		}
		fmt.Fprintf(out, "  %s %s", t.Sprint(ui.Primary, fmt.Sprintf("%-28s", flagSig)), usage)
		if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
			fmt.Fprintf(out, " %s", t.Sprint(ui.Secondary, "(default "+f.DefValue+")"))
		}
		fmt.Fprintln(out)
	})
	fmt.Fprintf(out, "\n%s\n", t.Sprint(ui.Warning, "Examples:"))
	fmt.Fprintln(out, "  megacalc fib --index 100")
	fmt.Fprintln(out, "  megacalc prime --digits 10")
	fmt.Fprintln(out, "  megacalc fact --index 50 --benchmark")
	fmt.Fprintln(out)
}
