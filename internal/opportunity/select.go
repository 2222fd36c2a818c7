package opportunity

import (
	"sort"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

// SortByScore orders items by score, highest first. Equal scores keep their
// input order.
func SortByScore(items []models.Opportunity) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// SelectDaily returns the first limit items of an already ranked list.
func SelectDaily(items []models.Opportunity, limit int) []models.Opportunity {
	if limit < 0 {
		limit = 0
	}
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]models.Opportunity, len(items))
	copy(out, items)
	return out
}

// SelectPriority returns at most limit urgent items, highest score first.
func SelectPriority(items []models.Opportunity, limit int) []models.Opportunity {
	var urgent []models.Opportunity
	for _, it := range items {
		if it.Urgent {
			urgent = append(urgent, it)
		}
	}
	SortByScore(urgent)
	return SelectDaily(urgent, limit)
}
