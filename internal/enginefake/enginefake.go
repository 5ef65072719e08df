// Package enginefake provides a scriptable fake implementing
// engine.Engine, used to drive scenario tests without a real
// entity-resolution engine.
package enginefake

import (
	"context"
	"sync"

	"github.com/senzing-garage/redoer/internal/redotype"
)

// PullResult is one scripted response to PullRedo.
type PullResult struct {
	Record redotype.Record
	Err    error
}

// Fake is a function-configurable fake engine. Every field is
// optional; a nil function falls back to a harmless default so tests
// only need to set what they exercise.
type Fake struct {
	mu sync.Mutex

	PullQueue []PullResult

	// ApplyFunc, when set, is called for every Apply. ApplyCalls
	// records every record passed, in order.
	ApplyFunc  func(record redotype.Record) error
	ApplyCalls []redotype.Record

	ApplyWithInfoFunc func(record redotype.Record) (redotype.Info, error)

	ActiveConfig  []byte
	DefaultConfig []byte

	ReinitFunc  func(configID []byte) error
	ReinitCalls [][]byte

	StatsJSON []byte

	Closed bool
}

// New returns a Fake with empty queues; tests append to PullQueue and
// set ApplyFunc/ApplyWithInfoFunc directly.
func New() *Fake {
	return &Fake{}
}

func (f *Fake) PullRedo(ctx context.Context) (redotype.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.PullQueue) == 0 {
		return nil, nil
	}
	next := f.PullQueue[0]
	f.PullQueue = f.PullQueue[1:]
	return next.Record, next.Err
}

func (f *Fake) Apply(ctx context.Context, record redotype.Record) error {
	f.mu.Lock()
	f.ApplyCalls = append(f.ApplyCalls, record)
	fn := f.ApplyFunc
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(record)
}

func (f *Fake) ApplyWithInfo(ctx context.Context, record redotype.Record) (redotype.Info, error) {
	f.mu.Lock()
	f.ApplyCalls = append(f.ApplyCalls, record)
	fn := f.ApplyWithInfoFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(record)
}

func (f *Fake) ActiveConfigID(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ActiveConfig, nil
}

func (f *Fake) DefaultConfigID(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DefaultConfig, nil
}

func (f *Fake) Reinit(ctx context.Context, configID []byte) error {
	f.mu.Lock()
	f.ReinitCalls = append(f.ReinitCalls, configID)
	fn := f.ReinitFunc
	active := configID
	f.mu.Unlock()
	if fn != nil {
		if err := fn(configID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.ActiveConfig = active
	f.mu.Unlock()
	return nil
}

func (f *Fake) Stats(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.StatsJSON, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// ReinitCallCount reports how many times Reinit was invoked.
func (f *Fake) ReinitCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ReinitCalls)
}

// ApplyCallCount reports how many times Apply/ApplyWithInfo was invoked.
func (f *Fake) ApplyCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ApplyCalls)
}
