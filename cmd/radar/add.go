package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/ingest"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/spf13/cobra"
)

type manualFlags struct {
	summary  string
	category string
	urgent   bool
	limited  bool
	deadline string
	score    float64
}

func newAddCommand() *cobra.Command {
	var f manualFlags
	cmd := &cobra.Command{
		Use:   "add TITLE URL",
		Short: "Add an opportunity by hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := buildManualItem(args[0], args[1], f, time.Now().UTC())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, appOptions{stores: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.items.Upsert(ctx, []models.Opportunity{item}); err != nil {
				return fmt.Errorf("add opportunity: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added opportunity: %s\n", item.Title)
			fmt.Fprintf(out, "  URL: %s\n", item.ContentURL)
			fmt.Fprintf(out, "  Category: %s\n", item.Category)
			fmt.Fprintf(out, "  Urgent: %t\n", item.Urgent)
			if item.DeadlineAt != nil {
				fmt.Fprintf(out, "  Deadline: %s\n", item.DeadlineAt.Format("2006-01-02"))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.summary, "summary", "s", "", "summary text")
	cmd.Flags().StringVarP(&f.category, "category", "c", string(models.CategoryProgram), "category (program, internship, course, certification, challenge, scholarship, conference)")
	cmd.Flags().BoolVarP(&f.urgent, "urgent", "u", false, "mark as urgent")
	cmd.Flags().BoolVarP(&f.limited, "limited", "l", false, "mark as limited time")
	cmd.Flags().StringVarP(&f.deadline, "deadline", "d", "", "deadline date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&f.score, "score", 0.8, "score between 0 and 1")
	return cmd
}

func buildManualItem(title, rawURL string, f manualFlags, now time.Time) (models.Opportunity, error) {
	title = strings.TrimSpace(title)
	rawURL = strings.TrimSpace(rawURL)
	if title == "" || rawURL == "" {
		return models.Opportunity{}, fmt.Errorf("title and url are required")
	}

	category := models.Category(strings.ToLower(strings.TrimSpace(f.category)))
	if !slices.Contains(models.Categories, category) {
		return models.Opportunity{}, fmt.Errorf("unknown category %q", f.category)
	}
	if f.score < 0 || f.score > 1 {
		return models.Opportunity{}, fmt.Errorf("score must be between 0 and 1, got %v", f.score)
	}

	var deadline *time.Time
	if f.deadline != "" {
		d, err := time.Parse("2006-01-02", f.deadline)
		if err != nil {
			return models.Opportunity{}, fmt.Errorf("invalid deadline %q, use YYYY-MM-DD", f.deadline)
		}
		deadline = &d
	}

	item := models.Opportunity{
		Title:        title,
		Summary:      strings.TrimSpace(f.summary),
		ContentURL:   rawURL,
		CanonicalURL: ingest.CanonicalizeURL(rawURL),
		Source:       "manual",
		SourceID:     "manual",
		PublishedAt:  &now,
		DeadlineAt:   deadline,
		Tags:         []string{"manual"},
	}
	return item.
		WithClassification(models.Classification{
			Category:    category,
			Urgent:      f.urgent,
			LimitedTime: f.limited,
		}).
		WithScore(f.score), nil
}
