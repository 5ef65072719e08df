// Package governor defines two optional extension points:
// Governor.Govern runs before each apply and may be shared across
// every Worker (it may coordinate global rate limiting); Filter
// rewrites or drops each info envelope before Output and is given to
// each Worker separately. Both ship trivial default implementations;
// a caller of Supervisor may substitute any implementation of either
// interface at process start.
package governor

import (
	"context"

	"github.com/senzing-garage/redoer/internal/redotype"
)

// Governor is invoked once per record, before Execute.Process.
type Governor interface {
	Govern(ctx context.Context) error
}

// Filter transforms or drops an info envelope before it reaches
// Output. Returning ok=false drops it.
type Filter interface {
	FilterInfo(ctx context.Context, info redotype.Info) (out redotype.Info, ok bool)
}

// NoOp is the default Governor: it never blocks or errors.
type NoOp struct{}

func (NoOp) Govern(ctx context.Context) error { return nil }

// Identity is the default Filter: it passes every envelope through
// unchanged.
type Identity struct{}

func (Identity) FilterInfo(ctx context.Context, info redotype.Info) (redotype.Info, bool) {
	return info, true
}
