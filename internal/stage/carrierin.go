package stage

import (
	"context"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/transport"
)

// CarrierInput is the `internal-dequeue` and `subscribe-<bus>` Input
// roles: both simply drive a transport.Adapter's Subscribe loop and
// forward its AckTag untouched, so one implementation covers the
// internal queue and every external bus, which otherwise would be
// distinct roles only because their underlying carriers differ.
// Counters is only set for the internal-dequeue role, which tracks
// Counters.ReceivedFromRedoQueue.
type CarrierInput struct {
	Adapter  transport.Adapter
	Counters *counters.Counters
}

// Records subscribes to the adapter and forwards every delivery until
// ctx is cancelled or the subscription itself ends.
func (in *CarrierInput) Records(ctx context.Context, ch chan<- Delivery) error {
	return in.Adapter.Subscribe(ctx, func(ctx context.Context, d transport.Delivery) {
		if in.Counters != nil {
			in.Counters.ReceivedFromRedoQueue.Add(1)
		}
		select {
		case ch <- Delivery{Record: d.Record, Tag: d.Tag}:
		case <-ctx.Done():
		}
	})
}

// Acknowledge delegates to the underlying adapter.
func (in *CarrierInput) Acknowledge(ctx context.Context, tag redotype.AckTag) error {
	return in.Adapter.Acknowledge(ctx, tag)
}
