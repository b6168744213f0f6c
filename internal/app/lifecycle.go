package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupContext bounds ctx by the evaluation timeout. A non-positive timeout
// leaves the context unbounded.
func SetupContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// SetupSignals returns a context canceled on SIGINT or SIGTERM, so that an
// interrupted sweep stops its backends and exits with code 130.
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// SetupLifecycle combines the evaluation timeout and signal handling. The
// returned context ends with whichever fires first.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The maximum duration of the run.
//
// Returns:
//   - context.Context: The run context.
//   - *CancelFuncs: The release functions, to be deferred via Cleanup.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	ctx, cancelTimeout := SetupContext(ctx, timeout)
	ctx, stopSignals := SetupSignals(ctx)

	return ctx, &CancelFuncs{
		CancelTimeout: cancelTimeout,
		StopSignals:   stopSignals,
	}
}

// CancelFuncs holds the release functions of a run context.
type CancelFuncs struct {
	CancelTimeout context.CancelFunc
	StopSignals   context.CancelFunc
}

// Cleanup stops signal delivery, then cancels the timeout context.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}
