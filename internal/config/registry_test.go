package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadMissingDirYieldsDefaults(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	assert.Empty(t, b.Registry.Sources)
	assert.Empty(t, b.Keywords.Rules())
	assert.Empty(t, b.Tracked.Programs)
	assert.Equal(t, DefaultScoring(), b.Scoring)
}

func TestLoadRegistryFallbacks(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RADAR_TEST_HOST", "example.org")
	writeFile(t, dir, SourcesFile, `
sources:
  - name: MLH Events
    url: https://${RADAR_TEST_HOST}/events.ics
    parser: ICS
    rateLimitSeconds: 2
    tags: [mlh]
  - id: off
    url: https://example.org/feed
    enabled: false
  - id: nourl
  - id: news1
    kind: news
    url: https://example.org/news.xml
`)

	reg, err := LoadRegistry(filepath.Join(dir, SourcesFile))
	require.NoError(t, err)
	require.Len(t, reg.Sources, 4)

	first := reg.Sources[0]
	assert.Equal(t, "MLH Events", first.ID)
	assert.Equal(t, "https://example.org/events.ics", first.URL)
	assert.Equal(t, "ics", first.Parser)
	assert.Equal(t, KindOpportunity, first.Kind)
	assert.Equal(t, 2.0, first.RateLimitSeconds)
	assert.True(t, first.IsEnabled())

	assert.Equal(t, "rss", reg.Sources[1].Parser)
	assert.False(t, reg.Sources[1].IsEnabled())

	opp := reg.Filter(KindOpportunity)
	require.Len(t, opp, 1)
	assert.Equal(t, "MLH Events", opp[0].ID)

	news := reg.Filter(KindNews)
	require.Len(t, news, 1)
	assert.Equal(t, "news1", news[0].ID)
}

func TestCategoryRulesKeepFileOrder(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "ordered list",
			body: `
category_rules:
  - category: scholarship
    keywords: [scholarship, stipend]
  - category: internship
    keywords: [internship]
  - category: course
    keywords: [course]
`,
		},
		{
			name: "legacy mapping",
			body: `
category_keywords:
  scholarship: [scholarship, stipend]
  internship: [internship]
  course: [course]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, KeywordsFile, tt.body)

			kw, err := LoadKeywords(filepath.Join(dir, KeywordsFile))
			require.NoError(t, err)

			rules := kw.Rules()
			require.Len(t, rules, 3)
			assert.Equal(t, models.CategoryScholarship, rules[0].Category)
			assert.Equal(t, models.CategoryInternship, rules[1].Category)
			assert.Equal(t, models.CategoryCourse, rules[2].Category)
			assert.Equal(t, []string{"scholarship", "stipend"}, rules[0].Keywords)
		})
	}
}

func TestRecurrenceMappingForm(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, KeywordsFile, `
recurrence:
  gsoc:
    triggers: [gsoc, summer of code]
    prep_checklist: [pick an org, draft proposal]
  outreachy:
    triggers: [outreachy]
    prep_checklist: [initial application]
`)

	kw, err := LoadKeywords(filepath.Join(dir, KeywordsFile))
	require.NoError(t, err)
	require.Len(t, kw.Recurrence, 2)
	assert.Equal(t, "gsoc", kw.Recurrence[0].ID)
	assert.Equal(t, []string{"pick an org", "draft proposal"}, kw.Recurrence[0].PrepChecklist)
	assert.Equal(t, "outreachy", kw.Recurrence[1].ID)
}

func TestLoadScoringPartialOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ScoringFile, `
weights:
  rarity: 0.1
thresholds:
  fuzzy_jaro_winkler_threshold: 0.9
limits:
  daily_max_items: 5
`)

	sc, err := LoadScoring(filepath.Join(dir, ScoringFile))
	require.NoError(t, err)
	assert.Equal(t, 0.1, sc.Weights.Rarity)
	assert.Equal(t, 0.30, sc.Weights.CompanyReputation)
	assert.Equal(t, 0.9, sc.Thresholds.FuzzyJaroWinklerThreshold)
	assert.Equal(t, 7, sc.Thresholds.UrgentThresholdDays)
	assert.Equal(t, 5, sc.Limits.DailyMaxItems)
	assert.Equal(t, 3, sc.Limits.PriorityMaxItems)
}

func TestLoadMalformedDegradesWithError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ScoringFile, "weights: [not, a, map\n")
	writeFile(t, dir, TrackedProgramsFile, `
tracked_programs:
  - id: gsoc
    name: Google Summer of Code
    keywords: [gsoc]
    category: Internship
alert_settings:
  opening_indicators: [applications open]
`)

	b, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, DefaultScoring(), b.Scoring)

	require.Len(t, b.Tracked.Programs, 1)
	p := b.Tracked.Programs[0]
	assert.Equal(t, models.CategoryInternship, p.Category)
	assert.Equal(t, models.PriorityMedium, p.Priority)
	assert.Equal(t, []string{"applications open"}, b.Tracked.Alerts.OpeningIndicators)
}

func TestSettingsValidate(t *testing.T) {
	s := Settings{ConfigDir: "c", DataDir: "d", HTTPTimeoutSeconds: 20}
	require.NoError(t, s.Validate())

	s.TelegramToken = "tok"
	assert.Error(t, s.Validate())

	s.TelegramChatID = "42"
	assert.NoError(t, s.Validate())

	s.HTTPTimeoutSeconds = 0
	assert.Error(t, s.Validate())
}
