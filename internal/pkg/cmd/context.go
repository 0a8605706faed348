package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap" // Logging.
)

// WithInterrupt returns a Context that will be canceled if a SIGINT or SIGTERM
// is received. Action calls in flight are abandoned, and no more are made.
func WithInterrupt(ctx context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctxWithCancel, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signalCh)
		select {
		case sig := <-signalCh:
			logger.Warn("interrupted, canceling", zap.Stringer("signal", sig))
		case <-ctxWithCancel.Done():
		}
	}()
	return ctxWithCancel, cancel
}
