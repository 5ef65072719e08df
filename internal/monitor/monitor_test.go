package monitor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/enginefake"
)

type fakeWorkerStatus struct{ alive bool }

func (s fakeWorkerStatus) Alive() bool { return s.alive }

type fakeStackDumper struct {
	frames string
	err    error
	calls  *int
}

func (d fakeStackDumper) Dump() (string, error) {
	if d.calls != nil {
		*d.calls++
	}
	return d.frames, d.err
}

func TestMonitorTicksUntilCancelled(t *testing.T) {
	fake := enginefake.New()
	fake.StatsJSON = []byte(`{"ok":true}`)
	m := &Monitor{
		Gateway:  engine.NewGateway(fake),
		Counters: counters.New(),
		Logger:   slog.Default(),
		Period:   10 * time.Millisecond,
		Workers:  []WorkerStatus{fakeWorkerStatus{alive: true}},
	}
	m.Counters.ProcessedRedoRecords.Add(3)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	m.Run(ctx)
}

func TestMonitorExitsProcessOnDeadWorkerWhenConfigured(t *testing.T) {
	var exitCode int
	exited := make(chan struct{})
	m := &Monitor{
		Counters:                counters.New(),
		Logger:                  slog.Default(),
		Period:                  5 * time.Millisecond,
		Workers:                 []WorkerStatus{fakeWorkerStatus{alive: false}},
		ExitOnThreadTermination: true,
	}
	m.exitFunc = func(code int) { exitCode = code; close(exited) }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Run(ctx)

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("expected exitFunc to be called")
	}
	assert.Equal(t, 1, exitCode)
}

func TestMonitorLogsLicenseReminder(t *testing.T) {
	var called int
	m := &Monitor{
		Counters:              counters.New(),
		Logger:                slog.Default(),
		Period:                10 * time.Millisecond,
		LicensePeriod:         10 * time.Millisecond,
		ExpirationWarningDays: 30,
		License: func() (LicenseDescriptor, error) {
			called++
			return LicenseDescriptor{ExpirationDate: time.Now().Add(24 * time.Hour)}, nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	m.Run(ctx)

	assert.GreaterOrEqual(t, called, 1)
}

func TestMonitorDisablesGDBAfterUnavailable(t *testing.T) {
	m := &Monitor{
		Counters: counters.New(),
		Logger:   slog.Default(),
		Period:   5 * time.Millisecond,
		RunGDB:   true,
	}
	calls := 0
	m.stackDumper = fakeStackDumper{err: errors.New("gdb not found"), calls: &calls}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	m.Run(ctx)

	assert.Equal(t, 1, calls)
}

func TestFilterFramesKeepsOnlyFunctionFrames(t *testing.T) {
	raw := "Thread 1\n#0  0xdeadbeef in main.worker () at worker.go:42\nirrelevant line\n#1  0x0 in main.main () at main.go:10\n"
	filtered := filterFrames(raw)
	require.Contains(t, filtered, "worker.go:42")
	require.Contains(t, filtered, "main.go:10")
	require.NotContains(t, filtered, "irrelevant")
}
