// Package stage defines the three orthogonal role interfaces a Worker
// composes — Input, Execute, Output. Concrete roles (EngineInput,
// CarrierInput, ApplyExecute, ForwardExecute, LogOnlyOutput,
// PublishOutput) live alongside this file and are wired together by
// the supervisor's registry.
package stage

import (
	"context"

	"github.com/senzing-garage/redoer/internal/redotype"
)

// Delivery pairs a record with the tag its Input produced, so Execute
// and the Worker can thread it back to Input.Acknowledge.
type Delivery struct {
	Record redotype.Record
	Tag    redotype.AckTag
}

// Input produces a lazy, infinite stream of records. Records blocks
// until one is available and must never return an empty stream on its
// own — when the backlog is exhausted behind the scenes it simply
// blocks again. It returns when ctx is cancelled or on an
// unrecoverable error, at which point the Worker exits its loop.
type Input interface {
	// Records streams deliveries onto ch until ctx is cancelled or an
	// unrecoverable error occurs, in which case it returns that error.
	Records(ctx context.Context, ch chan<- Delivery) error

	// Acknowledge redeems tag. Must be a no-op for tagless carriers.
	Acknowledge(ctx context.Context, tag redotype.AckTag) error
}

// Result is what Execute.Process reports about one record.
type Result struct {
	// Processed is true iff the record was successfully applied,
	// directly or after one config-drift recovery.
	Processed bool

	// Info is set when Execute produced an info envelope to forward
	// (apply-with-info only, and only when Processed is true).
	Info    redotype.Info
	HasInfo bool

	// Failure, when non-nil, is the record to hand to
	// Output.SendFailure because processing hit a non-retryable
	// condition. A Worker that gets a failure record always exits
	// fatally afterward: engine-not-initialized and exhausted
	// config-drift retry both terminate the process.
	Failure    redotype.Record
	HasFailure bool

	// Fatal, when true, tells the Worker to stop the whole process
	// after handling Failure/logging.
	Fatal bool
}

// Execute processes one record. Returning Processed=false signals a
// retryable transient failure: the Worker must not acknowledge, and
// re-delivery is left entirely to the Input's carrier semantics.
type Execute interface {
	Process(ctx context.Context, record redotype.Record) (Result, error)
}

// Output is invoked by the Worker (not Execute), with what Execute
// reported in its Result, to forward an info envelope or a failed
// record to wherever the pipeline's output role sends them.
type Output interface {
	SendInfo(ctx context.Context, info redotype.Info) error
	SendFailure(ctx context.Context, record redotype.Record) error
}
