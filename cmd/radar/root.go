package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// configDir overrides RADAR_CONFIG_DIR.
	configDir string

	// logLevel overrides LOG_LEVEL.
	logLevel string

	rootCmd = &cobra.Command{
		Use:          "radar",
		Short:        "Opportunity and AI news radar",
		Long:         `Polls configured feeds for learning opportunities and AI news, ranks them and delivers digests and urgent alerts.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding sources.yaml, keywords.yaml, scoring.yaml and tracked_programs.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newDailyCommand(),
		newPriorityCommand(),
		newAddCommand(),
		newSourcesCommand(),
		newTrackedCommand(),
		newRunsCommand(),
		newServeCommand(),
	)
}
