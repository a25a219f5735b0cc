package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Signals that stop a search
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// SetupHandler returns a context cancelled on SIGINT or SIGTERM.
// Call stop to restore default signal behavior.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, Signals...)
}

// Interrupted reports whether ctx ended because of a signal or cancellation
func Interrupted(ctx context.Context) bool {
	return ctx.Err() != nil
}
