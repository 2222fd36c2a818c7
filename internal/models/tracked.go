package models

import "strings"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities: high 3, medium 2, low 1, anything else 0.
func (p Priority) Rank() int {
	switch Priority(strings.ToLower(string(p))) {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// TrackedProgram is a manually curated watch-list entry. Read-only at runtime.
type TrackedProgram struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Keywords      []string `yaml:"keywords" json:"keywords"`
	SearchURLs    []string `yaml:"search_urls" json:"search_urls"`
	TypicalTiming string   `yaml:"typical_timing" json:"typical_timing,omitempty"`
	Category      Category `yaml:"category" json:"category"`
	Priority      Priority `yaml:"priority" json:"priority"`
	Notes         string   `yaml:"notes" json:"notes,omitempty"`
}

type AlertSettings struct {
	OpeningIndicators []string `yaml:"opening_indicators" json:"opening_indicators"`
}
