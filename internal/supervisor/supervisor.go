package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/senzing-garage/redoer/internal/config"
	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/metrics"
	"github.com/senzing-garage/redoer/internal/monitor"
)

// Supervisor owns one subcommand's pipeline: build it from the
// registered PipelineSpec, run it, and tear it down in the order
// invariant I5 requires.
type Supervisor struct {
	Config   *config.Config
	Gateway  *engine.Gateway
	Counters *counters.Counters
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Registry *Registry

	// License, when set, is passed straight to the Monitor.
	License func() (monitor.LicenseDescriptor, error)
}

// trackedRunnable wraps a runnable with a liveness flag the Monitor
// polls.
type trackedRunnable struct {
	name  string
	run   func(ctx context.Context) error
	alive atomic.Bool
}

func (t *trackedRunnable) Alive() bool { return t.alive.Load() }

func (t *trackedRunnable) start(ctx context.Context, wg *sync.WaitGroup, errs chan<- error, cancel context.CancelFunc, logger *slog.Logger) {
	t.alive.Store(true)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer t.alive.Store(false)
		if err := t.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker exited with error", "worker", t.name, "error", err)
			select {
			case errs <- err:
			default:
			}
			// Unblock every other runnable (feeder included) so a
			// fatal result terminates the whole pipeline instead of
			// leaving the rest to stall forever on a full queue.
			cancel()
		}
	}()
}

// Run builds the subcommand's topology, starts every worker plus the
// Monitor, blocks until every non-Monitor worker has returned, then
// stops the Monitor and closes the Engine Gateway last (invariant I5).
func (s *Supervisor) Run(ctx context.Context, subcommand string) error {
	spec, ok := s.Registry.Get(subcommand)
	if !ok {
		return fmt.Errorf("supervisor: unknown subcommand %q", subcommand)
	}

	s.Logger.Info("starting pipeline", "subcommand", subcommand, "config", s.Config)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	topo, err := build(runCtx, spec, buildDeps{
		Config:   s.Config,
		Gateway:  s.Gateway,
		Counters: s.Counters,
		Logger:   s.Logger,
	})
	if err != nil {
		return fmt.Errorf("supervisor: build pipeline %q: %w", subcommand, err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(topo.runnables))
	tracked := make([]*trackedRunnable, len(topo.runnables))
	for i, r := range topo.runnables {
		t := &trackedRunnable{name: r.name, run: r.run}
		tracked[i] = t
		t.start(runCtx, &wg, errs, cancel, s.Logger)
	}

	statuses := make([]monitor.WorkerStatus, len(tracked))
	for i, t := range tracked {
		statuses[i] = t
	}

	mon := &monitor.Monitor{
		Gateway:                 s.Gateway,
		Counters:                s.Counters,
		Metrics:                 s.Metrics,
		Logger:                  s.Logger,
		Workers:                 statuses,
		License:                 s.License,
		Period:                  s.Config.MonitoringPeriod,
		LicensePeriod:           s.Config.LogLicensePeriod,
		ExpirationWarningDays:   s.Config.ExpirationWarningDays,
		ExitOnThreadTermination: s.Config.ExitOnThreadTermination,
		RunGDB:                  s.Config.RunGDB,
	}
	monCtx, monCancel := context.WithCancel(runCtx)
	monDone := make(chan struct{})
	go func() {
		mon.Run(monCtx)
		close(monDone)
	}()

	wg.Wait()
	monCancel()
	<-monDone

	topo.Close(ctx)
	if closeErr := s.Gateway.Close(); closeErr != nil {
		s.Logger.Error("engine gateway close failed", "error", closeErr)
	}

	s.Logger.Info("pipeline stopped", "subcommand", subcommand)

	select {
	case runErr := <-errs:
		return runErr
	default:
		return nil
	}
}
