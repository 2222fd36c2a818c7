package main

import (
	"io"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the most recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{stores: true})
			if err != nil {
				return err
			}
			defer a.Close()

			logs, err := a.items.ListScanLogs(ctx, limit)
			if err != nil {
				return err
			}
			renderScanLogs(cmd.OutOrStdout(), logs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}

func renderScanLogs(out io.Writer, logs []models.ScanLog) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Scanned At", "Raw", "Deduped", "Fresh"})
	for _, l := range logs {
		t.AppendRow(table.Row{l.ID, l.ScannedAt.Format("2006-01-02 15:04:05"), l.RawCount, l.DedupCount, l.FreshCount})
	}
	t.Render()
}
