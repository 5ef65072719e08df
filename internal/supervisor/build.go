package supervisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/senzing-garage/redoer/internal/config"
	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/stage"
	"github.com/senzing-garage/redoer/internal/transport"
	"github.com/senzing-garage/redoer/internal/transport/internalqueue"
	"github.com/senzing-garage/redoer/internal/worker"
)

// runnable is anything the Supervisor starts and waits on.
type runnable struct {
	name string
	run  func(ctx context.Context) error
}

// topology is the fully built set of running pieces for one
// PipelineSpec, plus everything that must be released on shutdown.
type topology struct {
	runnables []runnable
	closers   []closer
}

func (t *topology) Close(ctx context.Context) {
	for _, c := range t.closers {
		_ = c.Close(ctx)
	}
}

// buildDeps bundles everything a build needs beyond the PipelineSpec
// itself.
type buildDeps struct {
	Config   *config.Config
	Gateway  *engine.Gateway
	Counters *counters.Counters
	Logger   *slog.Logger
}

// build assembles the fixed topology for a PipelineSpec: for the redo
// and read-from variants, config.ThreadsPerProcess Execute workers,
// plus exactly one feeder task when the Input is the engine pull. The
// write-to variant runs a single worker with no feeder and ignores
// ThreadsPerProcess.
func build(ctx context.Context, spec PipelineSpec, deps buildDeps) (*topology, error) {
	switch spec.Variant {
	case VariantRedo:
		return buildRedo(ctx, spec, deps, false, config.Bus(""))
	case VariantRedoWithInfo:
		return buildRedo(ctx, spec, deps, true, spec.Bus)
	case VariantReadFrom:
		return buildReadFrom(ctx, spec, deps, false)
	case VariantReadFromWithInfo:
		return buildReadFrom(ctx, spec, deps, true)
	case VariantWriteTo:
		return buildWriteTo(ctx, spec, deps)
	default:
		return nil, fmt.Errorf("supervisor: unknown pipeline variant %q", spec.Variant)
	}
}

// buildRedo wires the engine-pull feeder, the internal queue, and N
// apply workers. withInfo selects apply-with-info and, when true,
// publishes info envelopes to the named bus's info role; failures
// always go to that bus's failure role so a config-drift-exhausted or
// engine-not-initialized fatal has somewhere durable to land.
func buildRedo(ctx context.Context, spec PipelineSpec, deps buildDeps, withInfo bool, bus config.Bus) (*topology, error) {
	queue := internalqueue.New(deps.Config.QueueMaxSize)

	feeder := &worker.Feeder{
		Input: &stage.EngineInput{
			Gateway:        deps.Gateway,
			Counters:       deps.Counters,
			Logger:         deps.Logger,
			RedoSleep:      deps.Config.RedoSleepTime,
			RedoRetrySleep: deps.Config.RedoRetrySleepTime,
			RedoRetryLimit: deps.Config.RedoRetryLimit,
		},
		Publisher: queue,
		Counters:  deps.Counters,
		Logger:    deps.Logger,
	}

	topo := &topology{}
	topo.runnables = append(topo.runnables, runnable{name: fmt.Sprintf("%s-feeder", spec.Name), run: feeder.Run})
	topo.closers = append(topo.closers, closerFunc(func(context.Context) error { queue.Close(); return nil }))

	var output stage.Output = stage.LogOnlyOutput{Logger: deps.Logger}
	if withInfo {
		var infoPub, failurePub transport.Publisher
		adapter, closers, err := newBusAdapter(ctx, bus, deps.Config.Endpoint(bus, config.RoleInfo), deps.Config, deps.Logger)
		if err != nil {
			return nil, fmt.Errorf("supervisor: build info publisher: %w", err)
		}
		infoPub = adapter
		topo.closers = append(topo.closers, closers...)

		failureAdapter, failureClosers, err := newBusAdapter(ctx, bus, deps.Config.Endpoint(bus, config.RoleFailure), deps.Config, deps.Logger)
		if err != nil {
			return nil, fmt.Errorf("supervisor: build failure publisher: %w", err)
		}
		failurePub = failureAdapter
		topo.closers = append(topo.closers, failureClosers...)

		output = stage.PublishOutput{InfoPublisher: infoPub, FailurePublisher: failurePub}
	}

	for i := 0; i < deps.Config.ThreadsPerProcess; i++ {
		w := &worker.Worker{
			Name: fmt.Sprintf("%s-%d", spec.Name, i),
			Input: &stage.CarrierInput{
				Adapter:  queue,
				Counters: deps.Counters,
			},
			Execute:  &stage.ApplyExecute{Gateway: deps.Gateway, Counters: deps.Counters, WithInfo: withInfo},
			Output:   output,
			Counters: deps.Counters,
			Logger:   deps.Logger,
		}
		topo.runnables = append(topo.runnables, runnable{name: w.Name, run: w.Run})
	}
	return topo, nil
}

// buildReadFrom wires N apply workers consuming directly from bus's
// redo role. withInfo selects apply-with-info and publishes info
// envelopes back to the same bus's info role.
func buildReadFrom(ctx context.Context, spec PipelineSpec, deps buildDeps, withInfo bool) (*topology, error) {
	adapter, closers, err := newBusAdapter(ctx, spec.Bus, deps.Config.Endpoint(spec.Bus, config.RoleRedo), deps.Config, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("supervisor: build redo subscriber: %w", err)
	}

	topo := &topology{closers: closers}

	var output stage.Output = stage.LogOnlyOutput{Logger: deps.Logger}
	if withInfo {
		infoAdapter, infoClosers, err := newBusAdapter(ctx, spec.Bus, deps.Config.Endpoint(spec.Bus, config.RoleInfo), deps.Config, deps.Logger)
		if err != nil {
			return nil, fmt.Errorf("supervisor: build info publisher: %w", err)
		}
		topo.closers = append(topo.closers, infoClosers...)
		output = stage.PublishOutput{InfoPublisher: infoAdapter}
	}

	for i := 0; i < deps.Config.ThreadsPerProcess; i++ {
		w := &worker.Worker{
			Name:     fmt.Sprintf("%s-%d", spec.Name, i),
			Input:    &stage.CarrierInput{Adapter: adapter},
			Execute:  &stage.ApplyExecute{Gateway: deps.Gateway, Counters: deps.Counters, WithInfo: withInfo},
			Output:   output,
			Counters: deps.Counters,
			Logger:   deps.Logger,
		}
		topo.runnables = append(topo.runnables, runnable{name: w.Name, run: w.Run})
	}
	return topo, nil
}

// buildWriteTo wires the single engine-pull feeder directly to a
// forward-to-bus Execute role, with no separate internal queue:
// `write-to-<bus>` has no downstream worker pool to hand records to,
// so the feeder itself is the only worker.
func buildWriteTo(ctx context.Context, spec PipelineSpec, deps buildDeps) (*topology, error) {
	adapter, closers, err := newBusAdapter(ctx, spec.Bus, deps.Config.Endpoint(spec.Bus, config.RoleRedo), deps.Config, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("supervisor: build redo publisher: %w", err)
	}

	w := &worker.Worker{
		Name: spec.Name,
		Input: &stage.EngineInput{
			Gateway:        deps.Gateway,
			Counters:       deps.Counters,
			Logger:         deps.Logger,
			RedoSleep:      deps.Config.RedoSleepTime,
			RedoRetrySleep: deps.Config.RedoRetrySleepTime,
			RedoRetryLimit: deps.Config.RedoRetryLimit,
		},
		Execute:  &stage.ForwardExecute{Publisher: adapter, Counters: deps.Counters},
		Output:   stage.LogOnlyOutput{Logger: deps.Logger},
		Counters: deps.Counters,
		Logger:   deps.Logger,
	}

	return &topology{
		runnables: []runnable{{name: w.Name, run: w.Run}},
		closers:   closers,
	}, nil
}
