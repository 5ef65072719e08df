package stage

import (
	"context"

	"github.com/senzing-garage/redoer/internal/classify"
	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/redotype"
)

// ApplyExecute implements both the `apply-plain` and `apply-with-info`
// Execute roles: WithInfo selects which engine API is called and
// whether a successful Process populates Result.Info. It
// recovers from exactly one detected config drift by reinitializing to
// the default config and retrying once (invariant I2 caps this at two
// total apply attempts).
type ApplyExecute struct {
	Gateway  *engine.Gateway
	Counters *counters.Counters
	WithInfo bool
}

// Process applies record, recovering from one config drift before
// giving up.
func (e *ApplyExecute) Process(ctx context.Context, record redotype.Record) (Result, error) {
	info, err := e.apply(ctx, record)
	if err == nil {
		e.Counters.ProcessedRedoRecords.Add(1)
		return successResult(info, e.WithInfo), nil
	}

	switch classify.Apply(err, mustConfigID(ctx, e.Gateway, true), mustConfigID(ctx, e.Gateway, false)) {
	case classify.ApplyFatal:
		return Result{Failure: record, HasFailure: true, Fatal: true}, err

	case classify.ApplyDBTransient:
		return Result{Processed: false}, nil

	case classify.ApplyConfigDrift:
		defaultID, idErr := e.Gateway.DefaultConfigID(ctx)
		if idErr != nil {
			return Result{Failure: record, HasFailure: true, Fatal: true}, idErr
		}
		if reinitErr := e.Gateway.Reinit(ctx, defaultID); reinitErr != nil {
			return Result{Failure: record, HasFailure: true, Fatal: true}, reinitErr
		}
		info, retryErr := e.apply(ctx, record)
		if retryErr != nil {
			return Result{Failure: record, HasFailure: true, Fatal: true}, retryErr
		}
		e.Counters.ProcessedRedoRecords.Add(1)
		return successResult(info, e.WithInfo), nil

	default: // ApplyUnknownNonFatal
		return Result{Failure: record, HasFailure: true, Fatal: true}, err
	}
}

func (e *ApplyExecute) apply(ctx context.Context, record redotype.Record) (redotype.Info, error) {
	if !e.WithInfo {
		return nil, e.Gateway.Apply(ctx, record)
	}
	return e.Gateway.ApplyWithInfo(ctx, record)
}

func successResult(info redotype.Info, withInfo bool) Result {
	r := Result{Processed: true}
	if withInfo {
		r.Info, r.HasInfo = info, true
	}
	return r
}

// mustConfigID fetches active or default config id, swallowing the
// error into an empty slice: classify.Apply only uses these two ids to
// detect drift. When both lookups fail the empty ids compare equal and
// the error falls through to ApplyUnknownNonFatal; when only one fails
// the ids differ, so the error is classified as config drift and gets
// one reinit-and-retry before it turns fatal.
func mustConfigID(ctx context.Context, gw *engine.Gateway, active bool) []byte {
	var id []byte
	var err error
	if active {
		id, err = gw.ActiveConfigID(ctx)
	} else {
		id, err = gw.DefaultConfigID(ctx)
	}
	if err != nil {
		return nil
	}
	return id
}
