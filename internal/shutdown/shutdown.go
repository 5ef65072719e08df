// Package shutdown installs the signal handlers that trigger orderly
// process exit: a SIGINT or SIGTERM delivered after startup triggers
// orderly exit. The handler itself does nothing but cancel a context;
// every component downstream reacts to cancellation and returns, so
// the Supervisor's normal teardown path runs even on a
// signal-initiated exit.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Handler installs SIGINT/SIGTERM handling for the life of a context.
type Handler struct {
	logger *slog.Logger
}

// New returns a Handler that logs through logger.
func New(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// WithSignalCancel returns a derived context that is cancelled the
// first time SIGINT or SIGTERM is received, and a stop function the
// caller must defer to release the underlying signal.Notify
// registration.
func (h *Handler) WithSignalCancel(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			h.logger.Info("received signal, shutting down", "signal", sig.String())
			cancel()
		case <-done:
		}
	}()

	stop := func() {
		close(done)
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
