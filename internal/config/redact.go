package config

import "log/slog"

const redactedValue = "***REDACTED***"

// LogValue implements slog.LogValuer so that every log line touching a
// Config — startup and shutdown banners in particular — redacts the
// engine configuration JSON, the database URL, and any endpoint
// password automatically instead of relying on call sites to remember.
func (c *Config) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("threads_per_process", c.ThreadsPerProcess),
		slog.Int("queue_maxsize", c.QueueMaxSize),
		slog.Duration("redo_sleep_time", c.RedoSleepTime),
		slog.Duration("redo_retry_sleep_time", c.RedoRetrySleepTime),
		slog.Int("redo_retry_limit", c.RedoRetryLimit),
		slog.Duration("monitoring_period", c.MonitoringPeriod),
		slog.Bool("exit_on_thread_termination", c.ExitOnThreadTermination),
		slog.Bool("run_gdb", c.RunGDB),
		slog.String("engine_configuration_json", redactIfSet(c.EngineConfigurationJSON)),
		slog.String("database_url", redactIfSet(c.DatabaseURL)),
	}
	for bus, perRole := range c.Endpoints {
		for role, ep := range perRole {
			if ep.Host == "" && ep.Queue == "" && ep.Topic == "" {
				continue
			}
			attrs = append(attrs, slog.Group(string(bus)+"_"+string(role),
				slog.String("host", ep.Host),
				slog.String("queue", ep.Queue),
				slog.String("topic", ep.Topic),
				slog.String("username", ep.Username),
				slog.String("password", redactIfSet(ep.Password)),
			))
		}
	}
	return slog.GroupValue(attrs...)
}

func redactIfSet(s string) string {
	if s == "" {
		return ""
	}
	return redactedValue
}
