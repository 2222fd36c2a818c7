package opportunity

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/config"
	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func daysFromNow(d float64) *time.Time {
	t := testNow.Add(time.Duration(d * 24 * float64(time.Hour)))
	return &t
}

func TestContainsKeyword(t *testing.T) {
	tests := []struct {
		text, keyword string
		want          bool
	}{
		{"Summer internship at Acme", "internship", true},
		{"Our internal tooling update", "intern", false},
		{"INTERN wanted", "intern", true},
		{"Please Sign Up today", "sign up", true},
		{"early-bird pricing ends", "early-bird", true},
		{"promotes teamwork", "promo", false},
		{"learn c++ basics", "c++", true},
		{"", "apply", false},
		{"apply", "  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.keyword+"/"+tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsKeyword(tt.text, tt.keyword))
		})
	}

	assert.Equal(t, 2, CountKeywords("python and rust and go", []string{"python", "rust", "java"}))
	k, ok := FirstKeyword("free voucher", []string{"exam", "voucher", "free"})
	assert.True(t, ok)
	assert.Equal(t, "voucher", k)
}

func TestFilterNegative(t *testing.T) {
	items := []models.Opportunity{
		{Title: "Hiring senior engineer", CanonicalURL: "a"},
		{Title: "Free certification voucher", CanonicalURL: "b"},
		{Title: "Sponsored content: hackathon", CanonicalURL: "c"},
	}
	got := FilterNegative(items, []string{"hiring", "sponsored content"})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].CanonicalURL)

	assert.Len(t, FilterNegative(items, nil), 3)
}

func TestKeywordRelevance(t *testing.T) {
	policy := NewKeywordRelevance(config.Keywords{
		UrgencyKeywords:     []string{"last chance"},
		LimitedTimeKeywords: []string{"early bird"},
		CategoryRules: config.CategoryRules{
			{Category: models.CategoryChallenge, Keywords: []string{"kaggle", "challenge"}},
		},
	})

	tests := []struct {
		name string
		item models.Opportunity
		want bool
	}{
		{"Deadline always kept", models.Opportunity{Title: "Quarterly update", DeadlineAt: daysFromNow(3)}, true},
		{"Strong CTA", models.Opportunity{Title: "Apply for the fellowship"}, true},
		{"Urgency keyword", models.Opportunity{Title: "Last chance for seats"}, true},
		{"Limited-time keyword", models.Opportunity{Title: "Early bird pricing"}, true},
		{"Category keyword counts as strong", models.Opportunity{Title: "New Kaggle competition launched"}, true},
		{"Broad term alone dropped", models.Opportunity{Title: "Recap of our developer conference"}, false},
		{"Broad category keyword alone dropped", models.Opportunity{Title: "The challenge of scaling"}, false},
		{"Broad term with secondary CTA", models.Opportunity{Title: "Workshop series", Summary: "RSVP on the page"}, true},
		{"Plain blog post", models.Opportunity{Title: "How we migrated our database"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Keep(tt.item))
		})
	}

	items := []models.Opportunity{{Title: "How we migrated"}, {Title: "Apply now"}}
	assert.Len(t, FilterRelevant(items, policy), 1)
	assert.Len(t, FilterRelevant(items, KeepAll{}), 2)
}

func TestKeywordRelevanceOverrides(t *testing.T) {
	policy := NewKeywordRelevance(config.Keywords{
		Relevance: config.RelevanceKeywords{StrongCTA: []string{"bounty"}},
	})
	assert.True(t, policy.Keep(models.Opportunity{Title: "Bug bounty round"}))
	assert.False(t, policy.Keep(models.Opportunity{Title: "Apply the patch"}))
}

func TestBestTieBreak(t *testing.T) {
	early, late := daysFromNow(-3), daysFromNow(-1)

	tests := []struct {
		name string
		a, b models.Opportunity
		want string
	}{
		{"Earlier published wins", models.Opportunity{CanonicalURL: "a", PublishedAt: late}, models.Opportunity{CanonicalURL: "b", PublishedAt: early}, "b"},
		{"Published beats missing", models.Opportunity{CanonicalURL: "a"}, models.Opportunity{CanonicalURL: "b", PublishedAt: late}, "b"},
		{"Deadline wins", models.Opportunity{CanonicalURL: "a", DeadlineAt: late}, models.Opportunity{CanonicalURL: "b"}, "a"},
		{"Longer summary wins", models.Opportunity{CanonicalURL: "a", Summary: "x"}, models.Opportunity{CanonicalURL: "b", Summary: "xyz"}, "b"},
		{"Lexical URL fallback", models.Opportunity{CanonicalURL: "b"}, models.Opportunity{CanonicalURL: "a"}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Best(tt.a, tt.b).CanonicalURL)
			assert.Equal(t, tt.want, Best(tt.b, tt.a).CanonicalURL, "must not depend on argument order")
		})
	}
}

func TestDedup(t *testing.T) {
	opts := DedupOptions{WindowDays: 60, Threshold: 0.92, Now: fixedNow}

	t.Run("Same canonical URL keeps earlier", func(t *testing.T) {
		got := Dedup([]models.Opportunity{
			{Title: "Cloud Quest", CanonicalURL: "https://aws.com/q", PublishedAt: daysFromNow(-1), Source: "feed-a"},
			{Title: "Cloud Quest (repost)", CanonicalURL: "https://aws.com/q", PublishedAt: daysFromNow(-2), Source: "feed-b"},
		}, opts)
		require.Len(t, got, 1)
		assert.Equal(t, "feed-b", got[0].Source)
	})

	t.Run("Same normalized title across URLs", func(t *testing.T) {
		got := Dedup([]models.Opportunity{
			{Title: "GitHub  Universe Scholarship", CanonicalURL: "https://a.com/1"},
			{Title: "github universe scholarship", CanonicalURL: "https://b.com/2", DeadlineAt: daysFromNow(5)},
		}, opts)
		require.Len(t, got, 1)
		assert.Equal(t, "https://b.com/2", got[0].CanonicalURL)
	})

	t.Run("Fuzzy near duplicates merge", func(t *testing.T) {
		got := Dedup([]models.Opportunity{
			{Title: "Google Summer of Code 2025 applications open", CanonicalURL: "https://a.com/gsoc"},
			{Title: "AWS Cloud Quest free voucher", CanonicalURL: "https://aws.com/q"},
			{Title: "Google Summer of Code 2025 applications opened", CanonicalURL: "https://b.com/gsoc", Summary: "details"},
		}, opts)
		require.Len(t, got, 2)
		assert.Equal(t, "https://aws.com/q", got[0].CanonicalURL)
		assert.Equal(t, "https://b.com/gsoc", got[1].CanonicalURL)
	})

	t.Run("Window drops stale items but keeps undated", func(t *testing.T) {
		got := Dedup([]models.Opportunity{
			{Title: "Old news", CanonicalURL: "https://a.com/old", PublishedAt: daysFromNow(-90)},
			{Title: "Undated", CanonicalURL: "https://a.com/undated"},
		}, opts)
		require.Len(t, got, 1)
		assert.Equal(t, "Undated", got[0].Title)
	})

	t.Run("Empty title is dropped at title stage", func(t *testing.T) {
		got := Dedup([]models.Opportunity{{CanonicalURL: "https://a.com/x"}}, opts)
		assert.Empty(t, got)
	})
}

func TestDedupIsOrderIndependent(t *testing.T) {
	opts := DedupOptions{WindowDays: 60, Threshold: 0.92, Now: fixedNow}
	items := []models.Opportunity{
		{Title: "MLH Fellowship spring batch", CanonicalURL: "https://mlh.io/f", PublishedAt: daysFromNow(-4)},
		{Title: "MLH Fellowship spring batch", CanonicalURL: "https://news.com/mlh", PublishedAt: daysFromNow(-2)},
		{Title: "Outreachy internships open", CanonicalURL: "https://outreachy.org", Summary: "paid remote"},
		{Title: "Outreachy internships opened", CanonicalURL: "https://blog.com/outreachy"},
		{Title: "NVIDIA DLI free course", CanonicalURL: "https://nvidia.com/dli", DeadlineAt: daysFromNow(10)},
		{Title: "NVIDIA DLI free course", CanonicalURL: "https://nvidia.com/dli", Summary: "longer summary here"},
	}
	want := Dedup(items, opts)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Opportunity(nil), items...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Dedup(shuffled, opts))
	}

	// Running dedup on its own output changes nothing.
	assert.Equal(t, want, Dedup(want, opts))
}

func testKeywords() config.Keywords {
	return config.Keywords{
		CategoryRules: config.CategoryRules{
			{Category: models.CategoryScholarship, Keywords: []string{"scholarship"}},
			{Category: models.CategoryInternship, Keywords: []string{"internship", "intern"}},
			{Category: models.CategoryCertification, Keywords: []string{"certification", "voucher"}},
		},
		UrgencyKeywords:     []string{"apply now", "last chance"},
		LimitedTimeKeywords: []string{"limited seats", "early bird"},
		SkillKeywords:       []string{"gpu", "python", "kubernetes"},
		Recurrence: config.RecurrenceRules{
			{ID: "gsoc", Triggers: []string{"gsoc", "summer of code"}, PrepChecklist: []string{"Pick an org", "Draft proposal"}},
		},
	}
}

func TestClassify(t *testing.T) {
	c := Classifier{Keywords: testKeywords(), UrgentThresholdDays: 7, Now: fixedNow}

	t.Run("First matching rule wins", func(t *testing.T) {
		got := c.Classify(models.Opportunity{Title: "Internship with scholarship stipend"})
		assert.Equal(t, models.CategoryScholarship, got.Category)
	})

	t.Run("Default category", func(t *testing.T) {
		got := c.Classify(models.Opportunity{Title: "Community meetup"})
		assert.Equal(t, models.CategoryProgram, got.Category)
		assert.False(t, got.Urgent)
		assert.False(t, got.LimitedTime)
		assert.Nil(t, got.PrepChecklist)
	})

	t.Run("Deadline within threshold is urgent", func(t *testing.T) {
		got := c.Classify(models.Opportunity{Title: "Hackathon", DeadlineAt: daysFromNow(3)})
		assert.True(t, got.Urgent)
	})

	t.Run("Deadline beyond threshold is not urgent", func(t *testing.T) {
		got := c.Classify(models.Opportunity{Title: "Hackathon", DeadlineAt: daysFromNow(30)})
		assert.False(t, got.Urgent)
	})

	t.Run("Urgency and limited keywords", func(t *testing.T) {
		got := c.Classify(models.Opportunity{Title: "Apply now", Summary: "Limited seats available"})
		assert.True(t, got.Urgent)
		assert.True(t, got.LimitedTime)
	})

	t.Run("Recurrence attaches checklist", func(t *testing.T) {
		orig := models.Opportunity{Title: "Google Summer of Code is coming"}
		got := c.Classify(orig)
		assert.Equal(t, []string{"Pick an org", "Draft proposal"}, got.PrepChecklist)
		assert.Nil(t, orig.PrepChecklist)
	})
}

func TestScore(t *testing.T) {
	s := Scorer{Keywords: testKeywords(), Weights: config.DefaultScoring().Weights, Now: fixedNow}

	item := models.Opportunity{
		Title:       "Free GPU voucher - apply now",
		Summary:     "Limited seats",
		Tags:        []string{"Google"},
		PublishedAt: daysFromNow(-1),
		Urgent:      true,
		LimitedTime: true,
	}

	b := s.Breakdown(item)
	assert.Equal(t, 1.0, b.Reputation)
	assert.InDelta(t, 1.0/6.0, b.Skill, 1e-9)
	assert.Equal(t, 1.0, b.Benefit)
	assert.InDelta(t, 0.8, b.Timeliness, 1e-9)
	assert.Equal(t, 0.8, b.Rarity)

	scored := s.Score(item)
	assert.Equal(t, 0.752, scored.Score)
	assert.Equal(t, 75.2, scored.Score100())
	assert.Zero(t, item.Score, "input must not be modified")
	assert.Equal(t, scored.Score, s.Score(item).Score, "scoring is pure")
}

func TestScoreSubSignals(t *testing.T) {
	s := Scorer{Keywords: config.Keywords{}, Weights: config.DefaultScoring().Weights, Now: fixedNow}

	assert.Equal(t, 0.9, reputation([]string{"misc", "MLH"}))
	assert.Equal(t, 0.6, reputation(nil))
	assert.Equal(t, 0.5, s.skill("anything"))

	assert.InDelta(t, 0.0, timeliness(models.Opportunity{DeadlineAt: daysFromNow(-1)}, testNow), 1e-9)
	assert.InDelta(t, 0.8, timeliness(models.Opportunity{DeadlineAt: daysFromNow(2)}, testNow), 1e-9)
	assert.InDelta(t, 0.5, timeliness(models.Opportunity{PublishedAt: daysFromNow(-20)}, testNow), 1e-9)
	assert.InDelta(t, 0.4, timeliness(models.Opportunity{}, testNow), 1e-9)

	assert.Equal(t, 0.6, rarity(models.Opportunity{Urgent: true}))
	assert.Equal(t, 0.4, rarity(models.Opportunity{}))
}

func TestTimelinessRisesAsDeadlineNears(t *testing.T) {
	s := Scorer{Keywords: config.Keywords{}, Weights: config.DefaultScoring().Weights, Now: fixedNow}

	prevTimeliness, prevScore := -1.0, -1.0
	for days := 14.0; days >= 3.0; days -= 0.25 {
		item := models.Opportunity{Title: "Cloud credits", DeadlineAt: daysFromNow(days)}

		got := timeliness(item, testNow)
		score := s.Score(item).Score
		assert.GreaterOrEqual(t, got, prevTimeliness, "timeliness at %.2f days", days)
		assert.GreaterOrEqual(t, score, prevScore, "score at %.2f days", days)
		prevTimeliness, prevScore = got, score
	}

	assert.Greater(t, timeliness(models.Opportunity{DeadlineAt: daysFromNow(3)}, testNow),
		timeliness(models.Opportunity{DeadlineAt: daysFromNow(14)}, testNow))
}

func testPrograms() []models.TrackedProgram {
	return []models.TrackedProgram{
		{ID: "devpost", Name: "Devpost Hackathons", Keywords: []string{"hackathon"}, Category: models.CategoryChallenge, Priority: models.PriorityMedium},
		{ID: "gsoc", Name: "Google Summer of Code", Keywords: []string{"gsoc", "summer of code"}, Category: models.CategoryInternship, Priority: models.PriorityHigh, Notes: "Org list drops in February", TypicalTiming: "Feb-Apr"},
		{ID: "mlh", Name: "MLH Fellowship", Keywords: []string{"hackathon", "mlh"}, Category: models.CategoryProgram, Priority: models.PriorityMedium},
	}
}

func TestEnrich(t *testing.T) {
	e := Enricher{
		Programs: testPrograms(),
		Alerts:   models.AlertSettings{OpeningIndicators: []string{"applications open"}},
		Logger:   zerolog.Nop(),
	}

	t.Run("High priority match", func(t *testing.T) {
		item := models.Opportunity{Title: "GSoC hackathon: applications open", Summary: "Details", Score: 0.5, Category: models.CategoryProgram}
		got := e.Enrich(item)
		assert.Equal(t, 0.8, got.Score)
		assert.True(t, got.Urgent)
		assert.Equal(t, models.CategoryInternship, got.Category)
		assert.Equal(t, "Details\n\n📌 Org list drops in February", got.Summary)
		assert.Equal(t, "gsoc", got.TrackedProgramID)
		assert.Equal(t, "Google Summer of Code", got.TrackedProgramName)
		assert.Equal(t, "Details", item.Summary)

		again := e.Enrich(models.Opportunity{Title: "gsoc", Summary: got.Summary})
		assert.Equal(t, got.Summary, again.Summary, "notes appended once")
	})

	t.Run("Equal priority keeps first program", func(t *testing.T) {
		got := e.Enrich(models.Opportunity{Title: "Weekend hackathon", Score: 0.95})
		assert.Equal(t, "devpost", got.TrackedProgramID)
		assert.Equal(t, 1.0, got.Score, "boost is capped")
		assert.False(t, got.Urgent)
	})

	t.Run("Notes replace empty summary", func(t *testing.T) {
		got := e.Enrich(models.Opportunity{Title: "Summer of Code"})
		assert.Equal(t, "Org list drops in February", got.Summary)
	})

	t.Run("No match is unchanged", func(t *testing.T) {
		item := models.Opportunity{Title: "Unrelated", Score: 0.4, Tags: []string{"x"}}
		assert.Equal(t, item, e.Enrich(item))
	})
}

func TestStatusReport(t *testing.T) {
	report := StatusReport(testPrograms())
	assert.True(t, strings.HasPrefix(report, "📋 *Tracked Programs Status*"))
	assert.Contains(t, report, "🔴 *HIGH PRIORITY*\n  • Google Summer of Code\n    _Timing: Feb-Apr_")
	assert.Contains(t, report, "🟡 *MEDIUM PRIORITY*")
	assert.NotContains(t, report, "LOW PRIORITY")
	assert.Less(t, strings.Index(report, "HIGH"), strings.Index(report, "MEDIUM"))
}

func TestSelection(t *testing.T) {
	items := []models.Opportunity{
		{CanonicalURL: "a", Score: 0.9},
		{CanonicalURL: "b", Score: 0.4, Urgent: true},
		{CanonicalURL: "c", Score: 0.7, Urgent: true},
		{CanonicalURL: "d", Score: 0.5, Urgent: true},
		{CanonicalURL: "e", Score: 0.6, Urgent: true},
	}

	daily := SelectDaily(items, 2)
	require.Len(t, daily, 2)
	assert.Equal(t, "a", daily[0].CanonicalURL)

	prio := SelectPriority(items, 3)
	urls := make([]string, 0, len(prio))
	for _, it := range prio {
		urls = append(urls, it.CanonicalURL)
	}
	assert.Equal(t, []string{"c", "e", "d"}, urls)

	assert.Empty(t, SelectPriority(items[:1], 3))
	assert.Len(t, SelectDaily(items, 50), len(items))
}
