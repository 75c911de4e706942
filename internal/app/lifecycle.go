package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownSignals end a calculation or stop the server.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// SetupSignals derives a context canceled on SIGINT or SIGTERM. A canceled
// governed run reports context.Canceled, which maps to exit code 130.
//
// Returns:
//   - context.Context: The derived context.
//   - context.CancelFunc: Stops listening for signals (should be deferred).
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, shutdownSignals...)
}

// CancelFuncs holds the cancel functions created by SetupLifecycle.
type CancelFuncs struct {
	// CancelTimeout cancels the deadline context.
	CancelTimeout context.CancelFunc
	// StopSignals stops listening for OS signals.
	StopSignals context.CancelFunc
}

// Cleanup calls both cancel functions. It is safe on a zero value.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}

// SetupLifecycle bounds ctx by timeout and by the shutdown signals,
// whichever comes first. The estimate command uses it so that benchmarking
// never outlives the configured time limit.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The deadline, measured from now.
//
// Returns:
//   - context.Context: A context with both timeout and signal handling.
//   - *CancelFuncs: Both cancel functions; call Cleanup when done.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	ctx, stopSignals := SetupSignals(ctx)
	return ctx, &CancelFuncs{CancelTimeout: cancelTimeout, StopSignals: stopSignals}
}
