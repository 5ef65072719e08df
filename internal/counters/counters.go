// Package counters holds the daemon's process-wide monotonic counters:
// a plain struct of atomics owned by the Supervisor and shared by
// every Worker and the Monitor, never global mutable state.
package counters

import "sync/atomic"

// Counters are mutated by workers and read by the Monitor. Every field
// is monotonically non-decreasing (invariant I4).
type Counters struct {
	RedoRecordsFromEngine atomic.Int64
	ReceivedFromRedoQueue atomic.Int64
	SentToRedoQueue       atomic.Int64
	ProcessedRedoRecords  atomic.Int64
	SentToInfoQueue       atomic.Int64
	SentToFailureQueue    atomic.Int64
}

// New returns a fresh, zeroed Counters.
func New() *Counters {
	return &Counters{}
}

// Snapshot is a point-in-time, non-atomic copy suitable for logging or
// for computing an interval delta.
type Snapshot struct {
	RedoRecordsFromEngine int64
	ReceivedFromRedoQueue int64
	SentToRedoQueue       int64
	ProcessedRedoRecords  int64
	SentToInfoQueue       int64
	SentToFailureQueue    int64
}

// Snapshot reads every counter. Reads are best-effort: the six loads
// are independent atomic operations and are not linearizable with each
// other.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		RedoRecordsFromEngine: c.RedoRecordsFromEngine.Load(),
		ReceivedFromRedoQueue: c.ReceivedFromRedoQueue.Load(),
		SentToRedoQueue:       c.SentToRedoQueue.Load(),
		ProcessedRedoRecords:  c.ProcessedRedoRecords.Load(),
		SentToInfoQueue:       c.SentToInfoQueue.Load(),
		SentToFailureQueue:    c.SentToFailureQueue.Load(),
	}
}

// Delta returns s minus prev, field by field, for Monitor's
// interval-delta reporting.
func (s Snapshot) Delta(prev Snapshot) Snapshot {
	return Snapshot{
		RedoRecordsFromEngine: s.RedoRecordsFromEngine - prev.RedoRecordsFromEngine,
		ReceivedFromRedoQueue: s.ReceivedFromRedoQueue - prev.ReceivedFromRedoQueue,
		SentToRedoQueue:       s.SentToRedoQueue - prev.SentToRedoQueue,
		ProcessedRedoRecords:  s.ProcessedRedoRecords - prev.ProcessedRedoRecords,
		SentToInfoQueue:       s.SentToInfoQueue - prev.SentToInfoQueue,
		SentToFailureQueue:    s.SentToFailureQueue - prev.SentToFailureQueue,
	}
}
