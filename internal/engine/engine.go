// Package engine wraps the entity-resolution engine's native handle
// behind a Gateway that serializes every call: the handle is assumed
// unsafe for concurrent use, so one mutex guards every operation.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/senzing-garage/redoer/internal/redotype"
)

// ErrNotInitialized is returned when the underlying engine has not
// been (re)initialized with a valid configuration. It is always fatal.
var ErrNotInitialized = errors.New("engine: not initialized")

// Engine is the contract the opaque native engine handle must satisfy.
// Production code plugs in a cgo or RPC-backed implementation; tests
// use internal/enginefake.
type Engine interface {
	// PullRedo returns the next pending redo record, or a nil Record
	// with a nil error when the backlog is currently empty.
	PullRedo(ctx context.Context) (redotype.Record, error)
	Apply(ctx context.Context, record redotype.Record) error
	ApplyWithInfo(ctx context.Context, record redotype.Record) (redotype.Info, error)
	ActiveConfigID(ctx context.Context) ([]byte, error)
	DefaultConfigID(ctx context.Context) ([]byte, error)
	Reinit(ctx context.Context, configID []byte) error
	Stats(ctx context.Context) ([]byte, error)
}

// Gateway serializes access to an Engine under a single mutex and
// enforces invariant I5: it is created
// once and must be closed exactly once, after every worker has
// stopped.
type Gateway struct {
	mu  sync.Mutex
	eng Engine
}

// NewGateway wraps eng.
func NewGateway(eng Engine) *Gateway {
	return &Gateway{eng: eng}
}

func (g *Gateway) PullRedo(ctx context.Context) (redotype.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.PullRedo(ctx)
}

func (g *Gateway) Apply(ctx context.Context, record redotype.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.Apply(ctx, record)
}

func (g *Gateway) ApplyWithInfo(ctx context.Context, record redotype.Record) (redotype.Info, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.ApplyWithInfo(ctx, record)
}

func (g *Gateway) ActiveConfigID(ctx context.Context) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.ActiveConfigID(ctx)
}

func (g *Gateway) DefaultConfigID(ctx context.Context) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.DefaultConfigID(ctx)
}

func (g *Gateway) Reinit(ctx context.Context, configID []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.Reinit(ctx, configID)
}

func (g *Gateway) Stats(ctx context.Context) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eng.Stats(ctx)
}

// Close destroys the underlying engine handle, if it supports closing.
// Callers (the Supervisor) must only call this after every worker
// using the Gateway has stopped (invariant I5).
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if closer, ok := g.eng.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
