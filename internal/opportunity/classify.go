package opportunity

import (
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

// Classifier assigns category, urgency, limited-time and prep checklist.
type Classifier struct {
	Keywords            config.Keywords
	UrgentThresholdDays int
	Now                 func() time.Time
}

func (c Classifier) Classify(item models.Opportunity) models.Opportunity {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	text := item.Text()

	category := models.CategoryProgram
	for _, rule := range c.Keywords.Rules() {
		if AnyKeyword(text, rule.Keywords) {
			category = rule.Category
			break
		}
	}

	urgent := AnyKeyword(text, c.Keywords.UrgencyKeywords)
	if !urgent && item.DeadlineAt != nil {
		limit := now().UTC().Add(time.Duration(c.UrgentThresholdDays) * 24 * time.Hour)
		urgent = !item.DeadlineAt.After(limit)
	}

	var prep []string
	for _, rule := range c.Keywords.Recurrence {
		if len(rule.Triggers) > 0 && AnyKeyword(text, rule.Triggers) {
			prep = rule.PrepChecklist
			break
		}
	}

	return item.WithClassification(models.Classification{
		Category:      category,
		Urgent:        urgent,
		LimitedTime:   AnyKeyword(text, c.Keywords.LimitedTimeKeywords),
		PrepChecklist: prep,
	})
}
