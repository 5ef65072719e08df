// Package monitor implements the periodic reporting and liveness-watch
// task: a stats snapshot, the engine's own stats dump, and an optional
// external-debugger stack dump on every tick, plus a licence-expiry
// reminder on its own slower cadence, all driven from one ticking loop.
package monitor

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/metrics"
)

// LicenseDescriptor is the minimal licence-expiry data the Monitor
// reminds about; licence inspection itself happens elsewhere.
type LicenseDescriptor struct {
	ExpirationDate time.Time
}

// RemainingDays returns the number of whole days until expiration, as
// of now.
func (d LicenseDescriptor) RemainingDays(now time.Time) int {
	return int(d.ExpirationDate.Sub(now).Hours() / 24)
}

// WorkerStatus lets the Monitor ask whether a worker goroutine is
// still running.
type WorkerStatus interface {
	Alive() bool
}

// Monitor ticks at Period, logging a stats record, the engine's stats,
// and an optional gdb-assisted stack dump on every tick; licence
// reminders follow the slower LicensePeriod cadence.
type Monitor struct {
	Gateway  *engine.Gateway
	Counters *counters.Counters
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Workers  []WorkerStatus
	License  func() (LicenseDescriptor, error)

	Period                  time.Duration
	LicensePeriod           time.Duration
	ExpirationWarningDays   int
	ExitOnThreadTermination bool
	RunGDB                  bool

	startedAt time.Time

	// exitFunc defaults to os.Exit; tests override it to observe the
	// call instead of killing the test process.
	exitFunc func(code int)

	stackDumper stackDumper
}

// Run blocks, ticking every Period until ctx is cancelled. Monitor may
// be constructed as a plain struct literal; Run fills in the internal
// defaults it needs on first call.
func (m *Monitor) Run(ctx context.Context) {
	if m.exitFunc == nil {
		m.exitFunc = os.Exit
	}
	if m.stackDumper == nil {
		m.stackDumper = gdbStackDumper{}
	}
	m.startedAt = time.Now()
	prev := m.Counters.Snapshot()
	lastLicenseLog := time.Time{}
	gdbDisabled := false

	ticker := time.NewTicker(m.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			prev = m.tick(ctx, now, prev)
			if m.License != nil && (lastLicenseLog.IsZero() || now.Sub(lastLicenseLog) >= m.LicensePeriod) {
				m.logLicense(now)
				lastLicenseLog = now
			}
			if m.RunGDB && !gdbDisabled {
				gdbDisabled = !m.dumpStack()
			}
			if m.ExitOnThreadTermination && m.anyWorkerDead() {
				m.Logger.Error("a worker terminated, exiting per exit_on_thread_termination")
				m.exitFunc(1)
				return
			}
		}
	}
}

func (m *Monitor) tick(ctx context.Context, now time.Time, prev counters.Snapshot) counters.Snapshot {
	snap := m.Counters.Snapshot()
	delta := snap.Delta(prev)

	m.Logger.Info("monitor tick",
		"uptime", now.Sub(m.startedAt).String(),
		"workers_total", len(m.Workers),
		"workers_live", m.liveWorkerCount(),
		"redo_records_from_engine", snap.RedoRecordsFromEngine,
		"received_from_redo_queue", snap.ReceivedFromRedoQueue,
		"sent_to_redo_queue", snap.SentToRedoQueue,
		"processed_redo_records", snap.ProcessedRedoRecords,
		"sent_to_info_queue", snap.SentToInfoQueue,
		"sent_to_failure_queue", snap.SentToFailureQueue,
		"delta_redo_records_from_engine", delta.RedoRecordsFromEngine,
		"delta_received_from_redo_queue", delta.ReceivedFromRedoQueue,
		"delta_sent_to_redo_queue", delta.SentToRedoQueue,
		"delta_processed_redo_records", delta.ProcessedRedoRecords,
		"delta_sent_to_info_queue", delta.SentToInfoQueue,
		"delta_sent_to_failure_queue", delta.SentToFailureQueue,
	)
	if m.Metrics != nil {
		m.Metrics.SetFromSnapshot(snap)
	}

	if m.Gateway != nil {
		if stats, err := m.Gateway.Stats(ctx); err != nil {
			m.Logger.Warn("engine stats unavailable", "error", err)
		} else {
			m.Logger.Info("engine stats", "stats", string(stats))
		}
	}
	return snap
}

func (m *Monitor) logLicense(now time.Time) {
	desc, err := m.License()
	if err != nil {
		m.Logger.Warn("licence lookup failed", "error", err)
		return
	}
	remaining := desc.RemainingDays(now)
	if remaining <= m.ExpirationWarningDays {
		m.Logger.Warn("licence nearing expiration", "remaining_days", remaining, "expires", desc.ExpirationDate)
	} else {
		m.Logger.Info("licence status", "remaining_days", remaining, "expires", desc.ExpirationDate)
	}
}

func (m *Monitor) liveWorkerCount() int {
	n := 0
	for _, w := range m.Workers {
		if w.Alive() {
			n++
		}
	}
	return n
}

func (m *Monitor) anyWorkerDead() bool {
	for _, w := range m.Workers {
		if !w.Alive() {
			return true
		}
	}
	return false
}

// dumpStack invokes the stack dumper and logs its condensed trace. It
// returns false when the dumper reports itself unavailable, so Run can
// disable further attempts for the rest of the process's life.
func (m *Monitor) dumpStack() bool {
	frames, err := m.stackDumper.Dump()
	if err != nil {
		m.Logger.Warn("stack dump unavailable, disabling for the rest of this run", "error", err)
		return false
	}
	m.Logger.Info("stack dump", "frames", frames)
	return true
}
