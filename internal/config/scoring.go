package config

// Scoring holds weights, thresholds and selection limits from scoring.yaml.
type Scoring struct {
	Weights    Weights    `yaml:"weights"`
	Thresholds Thresholds `yaml:"thresholds"`
	Limits     Limits     `yaml:"limits"`
	News       NewsPolicy `yaml:"news"`
}

type Weights struct {
	CompanyReputation float64 `yaml:"company_reputation"`
	SkillRelevance    float64 `yaml:"skill_relevance"`
	BenefitValue      float64 `yaml:"benefit_value"`
	Timeliness        float64 `yaml:"timeliness"`
	Rarity            float64 `yaml:"rarity"`
}

type Thresholds struct {
	UrgentThresholdDays       int     `yaml:"urgent_threshold_days"`
	DedupWindowDays           int     `yaml:"dedup_window_days"`
	FuzzyJaroWinklerThreshold float64 `yaml:"fuzzy_jaro_winkler_threshold"`
}

type Limits struct {
	DailyMaxItems    int `yaml:"daily_max_items"`
	PriorityMaxItems int `yaml:"priority_max_items"`
	MaxCandidates    int `yaml:"max_candidates"`
	DailyMaxNews     int `yaml:"daily_max_news"`
	PriorityMaxNews  int `yaml:"priority_max_news"`
}

// NewsPolicy drives importance and repost rules for the news stream.
type NewsPolicy struct {
	PrioritySources             []string `yaml:"priority_sources"`
	AnnouncementKeywords        []string `yaml:"announcement_keywords"`
	ImportantMaxReposts         int      `yaml:"important_max_reposts"`
	DailyRepostIntervalHours    int      `yaml:"daily_repost_interval_hours"`
	PriorityRepostIntervalHours int      `yaml:"priority_repost_interval_hours"`
}

func DefaultScoring() Scoring {
	return Scoring{
		Weights: Weights{
			CompanyReputation: 0.30,
			SkillRelevance:    0.25,
			BenefitValue:      0.25,
			Timeliness:        0.15,
			Rarity:            0.05,
		},
		Thresholds: Thresholds{
			UrgentThresholdDays:       7,
			DedupWindowDays:           60,
			FuzzyJaroWinklerThreshold: 0.92,
		},
		Limits: Limits{
			DailyMaxItems:    8,
			PriorityMaxItems: 3,
			MaxCandidates:    500,
			DailyMaxNews:     7,
			PriorityMaxNews:  3,
		},
		News: NewsPolicy{
			PrioritySources: []string{
				"Google AI Blog",
				"DeepMind",
				"OpenAI News",
				"Microsoft Research",
				"Meta Engineering",
				"Anthropic News",
				"NVIDIA Developer Blog",
				"AWS Machine Learning Blog",
			},
			AnnouncementKeywords: []string{
				"introducing", "announcing", "release", "model", "api", "sdk",
				"agent", "workflow", "preview", "launch", "update", "changelog",
				"release notes",
			},
			ImportantMaxReposts:         3,
			DailyRepostIntervalHours:    20,
			PriorityRepostIntervalHours: 8,
		},
	}
}

// LoadScoring reads scoring.yaml over the defaults. Keys absent from the file keep their default.
func LoadScoring(path string) (Scoring, error) {
	sc := DefaultScoring()
	if err := loadYAML(path, &sc); err != nil {
		return DefaultScoring(), err
	}
	return sc, nil
}
