// Package internalqueue implements the Internal carrier: a
// fixed-capacity FIFO backed by a buffered Go channel. Publish blocks
// when full (invariant I3); acknowledge is a no-op; subscribe is a
// blocking dequeue loop. No record survives a process crash.
package internalqueue

import (
	"context"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/transport"
)

// Queue is the Internal transport adapter.
type Queue struct {
	ch chan redotype.Record
}

// New returns a Queue with the given fixed capacity
// (config.queue_maxsize).
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan redotype.Record, capacity)}
}

// Publish blocks until there is room, or ctx is cancelled.
func (q *Queue) Publish(ctx context.Context, record redotype.Record) error {
	select {
	case q.ch <- record:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe dequeues records forever, delivering each with a nil
// AckTag, until ctx is cancelled or the channel is closed.
func (q *Queue) Subscribe(ctx context.Context, fn transport.DeliveryFunc) error {
	for {
		select {
		case record, ok := <-q.ch:
			if !ok {
				return nil
			}
			fn(ctx, transport.Delivery{Record: record, Tag: nil})
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Acknowledge is a no-op: the Internal carrier has no redeemable tag.
func (q *Queue) Acknowledge(ctx context.Context, tag redotype.AckTag) error {
	return nil
}

// Close closes the underlying channel; safe to call once, after every
// publisher has stopped.
func (q *Queue) Close() {
	close(q.ch)
}

// Len reports the number of records currently buffered, for tests
// exercising backpressure.
func (q *Queue) Len() int {
	return len(q.ch)
}
