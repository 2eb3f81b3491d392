package cmd

import (
	"context"
	"os/signal"
)

// setupShutdownHandler returns a context that is cancelled when one of
// shutdownSignals arrives.
func setupShutdownHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), shutdownSignals...)
}
