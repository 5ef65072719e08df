package stage

import (
	"context"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/transport"
)

// ForwardExecute is the `forward-to-<bus>` Execute role used by the
// `write-to-<bus>` subcommands: it never touches the engine, it simply
// republishes the raw redo record onto the named bus.
type ForwardExecute struct {
	Publisher transport.Publisher
	Counters  *counters.Counters
}

// Process publishes record unchanged. A publish failure is retryable:
// the adapter has already exhausted its own internal retries, so
// returning Processed=false here leaves redelivery entirely to the
// Input carrier.
func (e *ForwardExecute) Process(ctx context.Context, record redotype.Record) (Result, error) {
	if err := e.Publisher.Publish(ctx, record); err != nil {
		return Result{Processed: false}, nil
	}
	e.Counters.SentToRedoQueue.Add(1)
	return Result{Processed: true}, nil
}
