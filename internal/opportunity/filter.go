package opportunity

import (
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

var (
	defaultStrongCTA = []string{
		"apply", "application", "applications", "deadline", "register", "registration",
		"scholarship", "stipend", "grant", "fellowship", "internship", "certification",
		"certificate", "exam", "voucher", "free", "hackathon", "competition", "bootcamp",
		"mentorship", "call for", "cfp", "sign up", "enroll",
	}
	defaultBroadTerms = []string{
		"program", "programme", "event", "workshop", "conference", "summit", "meetup",
		"webinar", "course", "training", "challenge",
	}
	defaultSecondaryCTA = []string{
		"join", "sign up", "rsvp", "attend", "submit", "enroll", "open to", "now open",
		"learn more", "tickets", "save the date",
	}
)

// FilterNegative drops items whose title or summary contains a negative keyword.
func FilterNegative(items []models.Opportunity, negatives []string) []models.Opportunity {
	if len(negatives) == 0 {
		return items
	}
	out := make([]models.Opportunity, 0, len(items))
	for _, it := range items {
		if AnyKeyword(it.Text(), negatives) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// RelevancePolicy decides whether an item looks like an actionable opportunity.
type RelevancePolicy interface {
	Keep(item models.Opportunity) bool
}

// KeepAll accepts every item.
type KeepAll struct{}

func (KeepAll) Keep(models.Opportunity) bool { return true }

// KeywordRelevance keeps items with a deadline or a strong call to action.
// Items mentioning only a broad term such as "workshop" also need a secondary
// call to action, which keeps ordinary blog posts out.
type KeywordRelevance struct {
	urgency   []string
	limited   []string
	strong    []string
	broad     []string
	secondary []string
}

// NewKeywordRelevance builds the default policy. Category keywords that are not
// broad terms count as strong signals.
func NewKeywordRelevance(kw config.Keywords) *KeywordRelevance {
	p := &KeywordRelevance{
		urgency:   kw.UrgencyKeywords,
		limited:   kw.LimitedTimeKeywords,
		strong:    orDefault(kw.Relevance.StrongCTA, defaultStrongCTA),
		broad:     orDefault(kw.Relevance.BroadTerms, defaultBroadTerms),
		secondary: orDefault(kw.Relevance.SecondaryCTA, defaultSecondaryCTA),
	}

	broad := make(map[string]struct{}, len(p.broad))
	for _, b := range p.broad {
		broad[b] = struct{}{}
	}
	strong := append([]string(nil), p.strong...)
	for _, rule := range kw.Rules() {
		for _, k := range rule.Keywords {
			if _, isBroad := broad[k]; !isBroad {
				strong = append(strong, k)
			}
		}
	}
	p.strong = strong
	return p
}

func (p *KeywordRelevance) Keep(item models.Opportunity) bool {
	if item.DeadlineAt != nil {
		return true
	}
	text := item.Text()
	if AnyKeyword(text, p.urgency) || AnyKeyword(text, p.limited) || AnyKeyword(text, p.strong) {
		return true
	}
	if AnyKeyword(text, p.broad) {
		return AnyKeyword(text, p.secondary)
	}
	return false
}

// FilterRelevant keeps the items accepted by policy.
func FilterRelevant(items []models.Opportunity, policy RelevancePolicy) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(items))
	for _, it := range items {
		if policy.Keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
