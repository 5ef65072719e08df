package stage

import (
	"context"
	"log/slog"

	"github.com/senzing-garage/redoer/internal/redotype"
)

// LogOnlyOutput is the `log-only` Output role: it never publishes
// anywhere, it only logs. Used by the plain `redo` and
// `read-from-<bus>` subcommands where no info/failure bus is wired.
type LogOnlyOutput struct {
	Logger *slog.Logger
}

func (o LogOnlyOutput) SendInfo(ctx context.Context, info redotype.Info) error {
	o.Logger.Debug("info envelope produced, log-only output configured", "bytes", len(info))
	return nil
}

func (o LogOnlyOutput) SendFailure(ctx context.Context, record redotype.Record) error {
	o.Logger.Warn("record failed, log-only output configured", "record", record.String())
	return nil
}
