package stage

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/enginefake"
	"github.com/senzing-garage/redoer/internal/redotype"
)

// countingHandler counts log records at each level, letting tests
// assert on how many warnings or errors a call emitted without
// parsing formatted output.
type countingHandler struct {
	warn, error int
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *countingHandler) Handle(_ context.Context, r slog.Record) error {
	switch r.Level {
	case slog.LevelWarn:
		h.warn++
	case slog.LevelError:
		h.error++
	}
	return nil
}
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func TestEngineInputYieldsNonEmptyRecordWithNilTag(t *testing.T) {
	fake := enginefake.New()
	fake.PullQueue = []enginefake.PullResult{
		{Record: redotype.Record("r1")},
	}
	in := &EngineInput{
		Gateway:        engine.NewGateway(fake),
		RedoSleep:      time.Millisecond,
		RedoRetrySleep: time.Millisecond,
		RedoRetryLimit: 5,
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan Delivery, 1)
	done := make(chan error, 1)
	go func() { done <- in.Records(ctx, ch) }()

	select {
	case d := <-ch:
		assert.Equal(t, redotype.Record("r1"), d.Record)
		assert.Nil(t, d.Tag)
	case <-time.After(time.Second):
		t.Fatal("expected a record")
	}
	cancel()
	<-done
}

func TestEngineInputEmptyPullSleepsThenRetries(t *testing.T) {
	fake := enginefake.New()
	fake.PullQueue = []enginefake.PullResult{
		{Record: nil}, // empty
		{Record: redotype.Record("r2")},
	}
	in := &EngineInput{
		Gateway:        engine.NewGateway(fake),
		RedoSleep:      time.Millisecond,
		RedoRetrySleep: time.Millisecond,
		RedoRetryLimit: 5,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan Delivery, 1)
	go func() { _ = in.Records(ctx, ch) }()

	select {
	case d := <-ch:
		assert.Equal(t, redotype.Record("r2"), d.Record)
	case <-time.After(time.Second):
		t.Fatal("expected r2 after the empty pull's sleep")
	}
}

func TestEngineInputFatalOnNonTransientError(t *testing.T) {
	fake := enginefake.New()
	fake.PullQueue = []enginefake.PullResult{
		{Err: engine.ErrNotInitialized},
	}
	in := &EngineInput{Gateway: engine.NewGateway(fake), RedoRetryLimit: 5}

	err := in.Records(context.Background(), make(chan Delivery))
	var fatal *ErrFatal
	require.ErrorAs(t, err, &fatal)
}

func TestEngineInputDBTransientRetriesUntilLimitThenFatal(t *testing.T) {
	fake := enginefake.New()
	for i := 0; i < 3; i++ {
		fake.PullQueue = append(fake.PullQueue, enginefake.PullResult{Err: errors.New("Database Connection Lost")})
	}
	in := &EngineInput{
		Gateway:        engine.NewGateway(fake),
		RedoRetrySleep: time.Millisecond,
		RedoRetryLimit: 2,
	}

	err := in.Records(context.Background(), make(chan Delivery))
	var fatal *ErrFatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 0, len(fake.PullQueue))
}

func TestEngineInputLogsOneWarningPerTransientRetry(t *testing.T) {
	fake := enginefake.New()
	for i := 0; i < 3; i++ {
		fake.PullQueue = append(fake.PullQueue, enginefake.PullResult{Err: errors.New("Database Connection Lost")})
	}
	handler := &countingHandler{}
	in := &EngineInput{
		Gateway:        engine.NewGateway(fake),
		Logger:         slog.New(handler),
		RedoRetrySleep: time.Millisecond,
		RedoRetryLimit: 2,
	}

	err := in.Records(context.Background(), make(chan Delivery))
	var fatal *ErrFatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 2, handler.warn, "one warning per transient retry")
	assert.Equal(t, 1, handler.error, "one error when retries are exhausted")
}

func TestEngineInputLogsErrorOnNonTransientFatal(t *testing.T) {
	fake := enginefake.New()
	fake.PullQueue = []enginefake.PullResult{
		{Err: engine.ErrNotInitialized},
	}
	handler := &countingHandler{}
	in := &EngineInput{Gateway: engine.NewGateway(fake), Logger: slog.New(handler), RedoRetryLimit: 5}

	err := in.Records(context.Background(), make(chan Delivery))
	var fatal *ErrFatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 0, handler.warn)
	assert.Equal(t, 1, handler.error)
}

func TestEngineInputAcknowledgeIsNoOp(t *testing.T) {
	in := &EngineInput{}
	assert.NoError(t, in.Acknowledge(context.Background(), nil))
}
