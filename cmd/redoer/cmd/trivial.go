package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sleepCmd, versionCmd, dockerAcceptanceTestCmd)
}

var sleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Sleep for delay_in_seconds (one second when unset), then exit 0",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		delay := cfg.StartupDelay
		if delay <= 0 {
			delay = time.Second
		}
		logger.Info("sleeping", "duration", delay)
		time.Sleep(delay)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the redoer version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version)
		return nil
	},
}

// dockerAcceptanceTestCmd exits 0 immediately; its only job is to
// prove the container image starts and the binary runs, for use in a
// container build's smoke-test stage.
var dockerAcceptanceTestCmd = &cobra.Command{
	Use:   "docker-acceptance-test",
	Short: "Exit 0 immediately, to smoke-test the container image",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("ok")
		return nil
	},
}
