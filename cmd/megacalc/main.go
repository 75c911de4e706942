// Command megacalc computes exact Fibonacci numbers, factorials and primes,
// by index or by digit count, from the command line or over HTTP.
package main

import (
	"context"
	"os"

	"github.com/agbru/megacalc/internal/app"
)

func main() {
	os.Exit(app.New(os.Stdout, os.Stderr).Run(context.Background(), os.Args[1:]))
}
