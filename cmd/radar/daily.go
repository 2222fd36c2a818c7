package main

import (
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/notify"
	"github.com/spf13/cobra"
)

func newDailyCommand() *cobra.Command {
	var (
		dryRun     bool
		includeAll bool
	)
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Run the pipeline and send the daily digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{stores: true, includeAll: includeAll})
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.deliverer(dryRun, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return a.newSender(d, dryRun).Daily(ctx, time.Now().UTC())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest instead of sending it; nothing is marked notified")
	cmd.Flags().BoolVar(&includeAll, "include-all", false, "skip the relevance filter")
	return cmd
}

func newPriorityCommand() *cobra.Command {
	var (
		dryRun     bool
		includeAll bool
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "priority",
		Short: "Send urgent opportunity alerts and important news outside quiet hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{stores: true, includeAll: includeAll})
			if err != nil {
				return err
			}
			defer a.Close()

			if notify.IsQuietHour(time.Now()) && !force && !a.settings.ForceRun {
				a.logger.Info().Msg("quiet_hours_skip")
				return nil
			}

			d, err := a.deliverer(dryRun, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return a.newSender(d, dryRun).Priority(ctx)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the alert instead of sending it; nothing is marked notified")
	cmd.Flags().BoolVar(&includeAll, "include-all", false, "skip the relevance filter")
	cmd.Flags().BoolVar(&force, "force", false, "ignore quiet hours (same as FORCE_RUN=1)")
	return cmd
}
