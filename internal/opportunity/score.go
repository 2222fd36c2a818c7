package opportunity

import (
	"math"
	"strings"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

var (
	topOrgs = map[string]struct{}{
		"google": {}, "deepmind": {}, "openai": {}, "microsoft": {}, "aws": {},
		"nvidia": {}, "oracle": {}, "github": {}, "cloudflare": {}, "ibm": {},
		"redhat": {}, "intel": {}, "meta": {},
	}
	recognizedOrgs = map[string]struct{}{
		"outreachy": {}, "mlh": {},
	}

	fundingTerms = []string{"scholarship", "stipend", "grant"}
	freeTerms    = []string{"voucher", "free"}
)

// Scorer computes the weighted 0..1 relevance score.
type Scorer struct {
	Keywords config.Keywords
	Weights  config.Weights
	Now      func() time.Time
}

// Breakdown holds the five sub-scores, each in 0..1.
type Breakdown struct {
	Reputation float64
	Skill      float64
	Benefit    float64
	Timeliness float64
	Rarity     float64
}

func (s Scorer) Score(item models.Opportunity) models.Opportunity {
	return item.WithScore(s.Total(s.Breakdown(item)))
}

// Total is the weighted sum, clamped and rounded to three decimals.
func (s Scorer) Total(b Breakdown) float64 {
	w := s.Weights
	raw := w.CompanyReputation*b.Reputation +
		w.SkillRelevance*b.Skill +
		w.BenefitValue*b.Benefit +
		w.Timeliness*b.Timeliness +
		w.Rarity*b.Rarity
	return math.Round(clamp01(raw)*1000) / 1000
}

func (s Scorer) Breakdown(item models.Opportunity) Breakdown {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	text := item.Text()
	return Breakdown{
		Reputation: reputation(item.Tags),
		Skill:      s.skill(text),
		Benefit:    s.benefit(text),
		Timeliness: timeliness(item, now().UTC()),
		Rarity:     rarity(item),
	}
}

func reputation(tags []string) float64 {
	best := 0.6
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if _, ok := topOrgs[t]; ok {
			return 1.0
		}
		if _, ok := recognizedOrgs[t]; ok {
			best = 0.9
		}
	}
	return best
}

// skill saturates at six matched keywords.
func (s Scorer) skill(text string) float64 {
	if len(s.Keywords.SkillKeywords) == 0 {
		return 0.5
	}
	return clamp01(float64(CountKeywords(text, s.Keywords.SkillKeywords)) / 6.0)
}

func (s Scorer) benefit(text string) float64 {
	v := 0.4
	if AnyKeyword(text, s.Keywords.LimitedTimeKeywords) {
		v += 0.4
	}
	if AnyKeyword(text, fundingTerms) {
		v += 0.3
	}
	if AnyKeyword(text, freeTerms) {
		v += 0.2
	}
	if AnyKeyword(text, s.Keywords.UrgencyKeywords) {
		v += 0.1
	}
	return clamp01(v)
}

func timeliness(item models.Opportunity, now time.Time) float64 {
	v := 0.4

	if item.PublishedAt != nil {
		age := now.Sub(*item.PublishedAt).Hours() / 24
		switch {
		case age <= 2:
			v += 0.4
		case age <= 7:
			v += 0.25
		case age <= 30:
			v += 0.1
		}
	}

	if item.DeadlineAt != nil {
		left := item.DeadlineAt.Sub(now).Hours() / 24
		switch {
		case left < 0:
			v -= 0.5
		case left <= 3:
			v += 0.4
		case left <= 7:
			v += 0.25
		case left <= 14:
			v += 0.1
		}
	}

	return clamp01(v)
}

func rarity(item models.Opportunity) float64 {
	switch {
	case item.LimitedTime:
		return 0.8
	case item.Urgent:
		return 0.6
	}
	return 0.4
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
