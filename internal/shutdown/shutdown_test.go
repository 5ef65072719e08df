package shutdown

import (
	"context"
	"log/slog"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithSignalCancelCancelsOnSignal(t *testing.T) {
	h := New(slog.Default())
	ctx, stop := h.WithSignalCancel(context.Background())
	defer stop()

	require_ := syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	assert.NoError(t, require_)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled after SIGTERM")
	}
}

func TestStopReleasesWithoutCancellingEarly(t *testing.T) {
	h := New(slog.Default())
	ctx, stop := h.WithSignalCancel(context.Background())

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before any signal or stop")
	default:
	}
	stop()
}
