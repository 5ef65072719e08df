package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/senzing-garage/redoer/internal/counters"
	"github.com/senzing-garage/redoer/internal/engine"
	"github.com/senzing-garage/redoer/internal/metrics"
	"github.com/senzing-garage/redoer/internal/shutdown"
	"github.com/senzing-garage/redoer/internal/supervisor"
)

// newEngine must be overridden by a build with the real engine handle
// constructor; the native/RPC binding lives outside this module. Nothing
// in this module sets it, so while it is nil every pipeline subcommand
// returns an error before starting.
var newEngine func() (engine.Engine, error)

func init() {
	registry := supervisor.DefaultRegistry()
	for _, name := range registry.List() {
		rootCmd.AddCommand(newPipelineCommand(name))
	}
}

func newPipelineCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Run the %s pipeline", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			if cfg.StartupDelay > 0 {
				logger.Info("delaying startup", "delay", cfg.StartupDelay)
				time.Sleep(cfg.StartupDelay)
			}

			if newEngine == nil {
				return fmt.Errorf("cmd: no engine binding configured for this build")
			}
			eng, err := newEngine()
			if err != nil {
				return fmt.Errorf("cmd: engine init: %w", err)
			}
			gateway := engine.NewGateway(eng)

			m := metrics.New()
			if cfg.MetricsAddr != "" {
				srv := startMetricsServer(cfg.MetricsAddr, m, logger)
				defer srv.Shutdown()
			}

			shutdownHandler := shutdown.New(logger)
			ctx, stop := shutdownHandler.WithSignalCancel(cmd.Context())
			defer stop()

			sup := &supervisor.Supervisor{
				Config:   cfg,
				Gateway:  gateway,
				Counters: counters.New(),
				Metrics:  m,
				Logger:   logger,
				Registry: supervisor.DefaultRegistry(),
			}

			if err := sup.Run(ctx, name); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
