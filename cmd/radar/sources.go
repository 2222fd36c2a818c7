package main

import (
	"fmt"
	"io"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/ingest"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "Fetch every configured source once and report which ones work",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.pipeline.CheckSources(cmd.Context())
			return renderSourceHealth(cmd.OutOrStdout(), report)
		},
	}
}

// renderSourceHealth prints the health table and fails when broken sources
// outnumber working ones.
func renderSourceHealth(out io.Writer, report []ingest.SourceHealth) error {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Parser", "Kind", "Status", "Items", "Error"})

	var working, broken, disabled int
	for _, h := range report {
		switch h.Status {
		case ingest.HealthWorking:
			working++
		case ingest.HealthBroken:
			broken++
		case ingest.HealthDisabled:
			disabled++
		}
		errText := ""
		if h.Err != nil {
			errText = ingest.TruncateText(h.Err.Error(), 60)
		}
		t.AppendRow(table.Row{h.Source.ID, h.Source.Name, h.Source.Parser, h.Source.Kind, h.Status, h.Items, errText})
	}
	t.Render()
	fmt.Fprintf(out, "working: %d  broken: %d  disabled: %d\n", working, broken, disabled)

	if broken > working {
		return fmt.Errorf("%d sources broken, %d working", broken, working)
	}
	return nil
}
