// Package cmd wires the cobra subcommand tree for redoer: one command
// per registered PipelineSpec, plus the trivial sleep, version, and
// docker-acceptance-test leaves.
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/senzing-garage/redoer/internal/config"
	"github.com/senzing-garage/redoer/internal/logging"
)

var v = viper.New()

// version is set at build time via -ldflags; it defaults to "dev" for
// local builds.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "redoer",
	Short: "Drains an entity-resolution engine's redo backlog",
	Long: `redoer pulls pending redo records from an entity-resolution engine
and applies them, optionally bridging records through an external
message bus (RabbitMQ, Kafka, SQS, or Azure Service Bus) instead of
applying them directly.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		v.SetEnvPrefix("REDOER")
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	})

	flags := rootCmd.PersistentFlags()
	flags.Int("threads-per-process", 0, "number of Execute workers (0 uses the default)")
	flags.Int("queue-maxsize", 0, "internal queue capacity (0 uses the default)")
	flags.Int("redo-sleep-time-in-seconds", 0, "sleep duration after an empty engine pull")
	flags.Int("redo-retry-sleep-time-in-seconds", 0, "sleep duration between db-transient pull retries")
	flags.Int("redo-retry-limit", 0, "maximum db-transient pull retries before fatal")
	flags.Int("monitoring-period-in-seconds", 0, "monitor tick interval")
	flags.Int("log-license-period-in-seconds", 0, "licence reminder interval")
	flags.Int("expiration-warning-in-days", 0, "days before licence expiry to start warning")
	flags.Int("delay-in-seconds", 0, "startup delay before the pipeline begins")
	flags.Bool("exit-on-thread-termination", false, "exit the process if any worker thread dies")
	flags.Bool("run-gdb", false, "attempt a gdb stack dump on every monitor tick")
	flags.String("engine-configuration-json", "", "entity-resolution engine configuration (redacted in logs)")
	flags.String("database-url", "", "engine database connection string (redacted in logs)")
	flags.String("metrics-addr", "", "if set, serve Prometheus metrics on this address")
	flags.Bool("verbose-governor-log", false, "log a trace line per governed record")
	flags.String("log-level", "", "debug, info, warn, or error")
	flags.String("log-format", "", "json or text")
	flags.String("log-output", "", "stdout, stderr, or file")
	flags.String("log-filename", "", "log file path when log-output is file")

	for _, name := range []string{
		"threads-per-process", "queue-maxsize", "redo-sleep-time-in-seconds",
		"redo-retry-sleep-time-in-seconds", "redo-retry-limit", "monitoring-period-in-seconds",
		"log-license-period-in-seconds", "expiration-warning-in-days", "delay-in-seconds",
		"exit-on-thread-termination", "run-gdb", "engine-configuration-json", "database-url",
		"metrics-addr", "verbose-governor-log", "log-level", "log-format", "log-output", "log-filename",
	} {
		key := strings.ReplaceAll(name, "-", "_")
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

// loadConfig resolves Config from flags, REDOER_ environment variables,
// and defaults, in that precedence order, and builds the structured
// logger Config.Logging describes.
func loadConfig() (*config.Config, *slog.Logger, error) {
	config.Defaults(v)
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, fmt.Errorf("cmd: %w", err)
	}
	logger := logging.New(cfg.Logging)
	return cfg, logger, nil
}
