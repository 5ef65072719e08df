package worker

import (
	"context"
	"log/slog"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/stage"
	"github.com/senzing-garage/redoer/internal/transport"
)

// Feeder is the single dedicated task the `redo`-family subcommands
// run in front of their Execute worker pool: there is exactly one
// Input-feeder worker when the Input is the engine pull. It drains
// stage.EngineInput and republishes every record onto the
// internal queue the Execute workers read from, counting
// Counters.SentToRedoQueue as it does.
type Feeder struct {
	Input     stage.Input
	Publisher transport.Publisher
	Counters  *counters.Counters
	Logger    *slog.Logger
}

// Run blocks until ctx is cancelled or the Input returns.
func (f *Feeder) Run(ctx context.Context) error {
	ch := make(chan stage.Delivery, 1)
	inputErr := make(chan error, 1)
	go func() { inputErr <- f.Input.Records(ctx, ch) }()

	for {
		select {
		case delivery, ok := <-ch:
			if !ok {
				return nil
			}
			if err := f.Publisher.Publish(ctx, delivery.Record); err != nil {
				f.Logger.Error("feeder failed to enqueue record", "error", err)
				continue
			}
			f.Counters.SentToRedoQueue.Add(1)
		case err := <-inputErr:
			f.Logger.Info("feeder stopping", "error", err)
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
