package stage

import (
	"context"
	"log/slog"
	"time"

	"github.com/senzing-garage/redoer/internal/classify"
	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/redotype"
)

// EngineInput is the `pull-from-engine` Input role: a single feeder
// that polls the engine's pull API forever and streams
// every non-empty record onward with a nil AckTag (the engine's pull
// API has no redeemable tag of its own). Every yielded record
// increments Counters.RedoRecordsFromEngine.
type EngineInput struct {
	Gateway        *engine.Gateway
	Counters       *counters.Counters
	Logger         *slog.Logger
	RedoSleep      time.Duration
	RedoRetrySleep time.Duration
	RedoRetryLimit int
}

func (in *EngineInput) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

// ErrFatal wraps a reason the Input must stop the whole process.
type ErrFatal struct {
	Reason string
	Err    error
}

func (e *ErrFatal) Error() string { return e.Reason + ": " + e.Err.Error() }
func (e *ErrFatal) Unwrap() error { return e.Err }

// Records polls the engine's pull API forever, classifying every
// error to decide whether to retry, back off, or exit fatally.
func (in *EngineInput) Records(ctx context.Context, ch chan<- Delivery) error {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		record, err := in.Gateway.PullRedo(ctx)
		if err != nil {
			switch classify.Pull(err) {
			case classify.PullDBTransient:
				if attempts < in.RedoRetryLimit {
					attempts++
					in.logger().Warn("engine pull: db-transient error, retrying",
						"attempt", attempts, "limit", in.RedoRetryLimit, "error", err)
					if sleepOrDone(ctx, in.RedoRetrySleep) {
						return ctx.Err()
					}
					continue
				}
				in.logger().Error("engine pull: db-transient retries exhausted", "limit", in.RedoRetryLimit, "error", err)
				return &ErrFatal{Reason: "engine pull: db-transient retries exhausted", Err: err}
			default:
				in.logger().Error("engine pull: fatal error", "error", err)
				return &ErrFatal{Reason: "engine pull: fatal", Err: err}
			}
		}

		if len(record) == 0 {
			if sleepOrDone(ctx, in.RedoSleep) {
				return ctx.Err()
			}
			continue
		}

		attempts = 0
		if in.Counters != nil {
			in.Counters.RedoRecordsFromEngine.Add(1)
		}
		select {
		case ch <- Delivery{Record: record, Tag: nil}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Acknowledge is a no-op: pulled records carry no redeemable tag.
func (in *EngineInput) Acknowledge(ctx context.Context, tag redotype.AckTag) error {
	return nil
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-ctx.Done():
		return true
	}
}
