// Package worker implements the single long-lived loop every pipeline
// topology runs N (or 1) copies of: pull a delivery from Input,
// govern, execute, acknowledge on success, count, repeat. A
// Worker never retries internally beyond whatever its Execute role
// does; redelivery is the Input carrier's contract.
package worker

import (
	"context"
	"log/slog"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/governor"
	"github.com/senzing-garage/redoer/internal/stage"
)

// Worker binds one Input, one Execute, and one Output, plus the shared
// Governor and per-worker Info Filter.
type Worker struct {
	Name     string
	Input    stage.Input
	Execute  stage.Execute
	Output   stage.Output
	Governor governor.Governor
	Filter   governor.Filter
	Counters *counters.Counters
	Logger   *slog.Logger

	// deliveries is sized 1 so Input.Records and the processing loop
	// run concurrently without either blocking the other more than
	// necessary; the Input implementation itself is the real backlog.
	deliveries chan stage.Delivery
}

// Run feeds Input.Records into the processing loop and blocks until
// either returns. A fatal Execute result stops the Worker and is
// returned so the Supervisor can terminate the process.
func (w *Worker) Run(ctx context.Context) error {
	if w.Governor == nil {
		w.Governor = governor.NoOp{}
	}
	if w.Filter == nil {
		w.Filter = governor.Identity{}
	}
	w.deliveries = make(chan stage.Delivery, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inputErr := make(chan error, 1)
	go func() { inputErr <- w.Input.Records(ctx, w.deliveries) }()

	for {
		select {
		case delivery, ok := <-w.deliveries:
			if !ok {
				w.Logger.Info("worker stopping: input closed", "worker", w.Name)
				return nil
			}
			if err := w.handle(ctx, delivery); err != nil {
				return err
			}
		case err := <-inputErr:
			w.Logger.Info("worker stopping: input returned", "worker", w.Name, "error", err)
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Worker) handle(ctx context.Context, delivery stage.Delivery) error {
	if err := w.Governor.Govern(ctx); err != nil {
		w.Logger.Warn("governor rejected record", "worker", w.Name, "error", err)
		return nil
	}

	result, err := w.Execute.Process(ctx, delivery.Record)
	if err != nil {
		w.Logger.Error("execute failed", "worker", w.Name, "error", err)
	}

	if result.HasFailure {
		if sendErr := w.Output.SendFailure(ctx, result.Failure); sendErr != nil {
			w.Logger.Error("send failure envelope failed", "worker", w.Name, "error", sendErr)
		}
		w.Counters.SentToFailureQueue.Add(1)
	}

	if result.Processed {
		if result.HasInfo {
			info, ok := w.Filter.FilterInfo(ctx, result.Info)
			if ok {
				if sendErr := w.Output.SendInfo(ctx, info); sendErr != nil {
					w.Logger.Error("send info envelope failed", "worker", w.Name, "error", sendErr)
				} else {
					w.Counters.SentToInfoQueue.Add(1)
				}
			}
		}
		if ackErr := w.Input.Acknowledge(ctx, delivery.Tag); ackErr != nil {
			w.Logger.Error("acknowledge failed", "worker", w.Name, "error", ackErr)
		}
	}

	if result.Fatal {
		return err
	}
	return nil
}
