package opportunity

import (
	"fmt"
	"math"
	"strings"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/rs/zerolog"
)

const (
	highPriorityBoost  = 0.30
	otherPriorityBoost = 0.15
)

// Enricher matches items against the tracked-program watch list.
type Enricher struct {
	Programs []models.TrackedProgram
	Alerts   models.AlertSettings
	Logger   zerolog.Logger
}

// Match returns the highest-priority program whose keyword occurs in the
// item text. Ties keep the first program in list order.
func (e Enricher) Match(item models.Opportunity) (models.TrackedProgram, bool) {
	text := item.Text()
	var best models.TrackedProgram
	found := false
	for _, p := range e.Programs {
		if !mentions(text, p.Keywords) {
			continue
		}
		if !found || p.Priority.Rank() > best.Priority.Rank() {
			best = p
			found = true
		}
	}
	return best, found
}

// Enrich boosts the score of a tracked-program match, forces urgency when the
// text carries an opening indicator, adopts the program's category and
// appends its notes to the summary. Unmatched items are returned unchanged.
func (e Enricher) Enrich(item models.Opportunity) models.Opportunity {
	program, ok := e.Match(item)
	if !ok {
		return item
	}

	boost := otherPriorityBoost
	if program.Priority == models.PriorityHigh {
		boost = highPriorityBoost
	}
	opening := mentions(item.Text(), e.Alerts.OpeningIndicators)

	summary := item.Summary
	if program.Notes != "" && !strings.Contains(summary, program.Notes) {
		if summary == "" {
			summary = program.Notes
		} else {
			summary = summary + "\n\n📌 " + program.Notes
		}
	}

	e.Logger.Info().
		Str("program_id", program.ID).
		Str("item_title", item.Title).
		Bool("is_opening", opening).
		Msg("program_match")

	return item.WithEnrichment(models.Enrichment{
		Score:       math.Round(math.Min(1, item.Score+boost)*1000) / 1000,
		Urgent:      item.Urgent || opening,
		Category:    program.Category,
		Summary:     summary,
		ProgramID:   program.ID,
		ProgramName: program.Name,
	})
}

// mentions reports whether lowerText contains any keyword as a plain substring.
func mentions(lowerText string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(lowerText, k) {
			return true
		}
	}
	return false
}

// StatusReport renders the watch list grouped by priority for chat delivery.
func StatusReport(programs []models.TrackedProgram) string {
	groups := map[models.Priority][]models.TrackedProgram{}
	for _, p := range programs {
		pr := p.Priority
		if pr.Rank() == 0 {
			pr = models.PriorityMedium
		}
		groups[pr] = append(groups[pr], p)
	}

	var b strings.Builder
	b.WriteString("📋 *Tracked Programs Status*\n\n")
	for _, pr := range []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		list := groups[pr]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s *%s PRIORITY*\n", priorityEmoji(pr), strings.ToUpper(string(pr)))
		for _, p := range list {
			fmt.Fprintf(&b, "  • %s\n", p.Name)
			if p.TypicalTiming != "" {
				fmt.Fprintf(&b, "    _Timing: %s_\n", p.TypicalTiming)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func priorityEmoji(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "🔴"
	case models.PriorityLow:
		return "🟢"
	}
	return "🟡"
}
