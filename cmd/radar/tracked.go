package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/ingest"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/opportunity"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTrackedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracked",
		Short: "Inspect the tracked program watch list",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), opportunity.StatusReport(a.cfg.Tracked.Programs))
			return nil
		},
	}
	cmd.AddCommand(newTrackedListCommand(), newTrackedCheckCommand())
	return cmd
}

func newTrackedListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked programs by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()
			renderPrograms(cmd.OutOrStdout(), a.cfg.Tracked.Programs)
			return nil
		},
	}
}

func newTrackedCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Look for opening announcements on high-priority program pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			findings := ingest.CheckProgramWebsites(cmd.Context(), a.fetcher, a.cfg.Tracked.Programs, a.logger)
			renderFindings(cmd.OutOrStdout(), findings)
			return nil
		},
	}
}

func renderPrograms(out io.Writer, programs []models.TrackedProgram) {
	sorted := make([]models.TrackedProgram, len(programs))
	copy(sorted, programs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Rank() > sorted[j].Priority.Rank()
	})

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Priority", "ID", "Name", "Category", "Timing"})
	for _, p := range sorted {
		t.AppendRow(table.Row{p.Priority, p.ID, p.Name, p.Category, p.TypicalTiming})
	}
	t.Render()
}

func renderFindings(out io.Writer, findings []ingest.ProgramFinding) {
	if len(findings) == 0 {
		fmt.Fprintln(out, "No opening announcements found.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Program", "Phrase", "URL", "Detected"})
	for _, f := range findings {
		t.AppendRow(table.Row{f.Program.Name, f.Phrase, f.URL, f.DetectedAt.Format("2006-01-02 15:04")})
	}
	t.Render()
}
