// Package transport defines the uniform publish/subscribe/acknowledge
// surface every carrier adapter implements, formalizing what a
// duck-typed adapter API would otherwise express only implicitly.
package transport

import (
	"context"

	"github.com/senzing-garage/redoer/internal/redotype"
)

// Delivery pairs a record with the AckTag needed to finalize it.
type Delivery struct {
	Record redotype.Record
	Tag    redotype.AckTag
}

// Publisher sends a record to a carrier. Implementations must not lose
// the record on a transient failure: they retry internally and only
// return an error once retries are exhausted.
type Publisher interface {
	Publish(ctx context.Context, record redotype.Record) error
}

// DeliveryFunc is invoked once per inbound message; Subscribe blocks
// until ctx is cancelled, the carrier's delivery stream ends, or a
// receive fails.
type DeliveryFunc func(ctx context.Context, delivery Delivery)

// Subscriber runs a receive loop forever, handing each delivery to fn
// in the calling goroutine.
type Subscriber interface {
	Subscribe(ctx context.Context, fn DeliveryFunc) error
}

// Acknowledger finalizes a delivery. Acknowledge must be idempotent
// and must be a no-op for carriers with no redeemable AckTag.
type Acknowledger interface {
	Acknowledge(ctx context.Context, tag redotype.AckTag) error
}

// Adapter is the full surface every carrier implements. A Kafka or
// Azure adapter may be built for one role only (writer/sender or
// reader/receiver); its Publish or Subscribe then returns an error
// when the half it needs is missing.
type Adapter interface {
	Publisher
	Subscriber
	Acknowledger
}
