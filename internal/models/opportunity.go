package models

import (
	"math"
	"strings"
	"time"
)

type Category string

const (
	CategoryProgram       Category = "program"
	CategoryInternship    Category = "internship"
	CategoryCourse        Category = "course"
	CategoryCertification Category = "certification"
	CategoryChallenge     Category = "challenge"
	CategoryScholarship   Category = "scholarship"
	CategoryConference    Category = "conference"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryProgram,
	CategoryInternship,
	CategoryCourse,
	CategoryCertification,
	CategoryChallenge,
	CategoryScholarship,
	CategoryConference,
}

// ParseCategory returns the category named by s, or CategoryProgram when s is unknown.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryProgram
}

// RawItem is the uniform connector output before normalization.
type RawItem struct {
	Title     string
	Summary   string
	URL       string
	Published string // free-form date text
	Deadline  string
	Source    string
	SourceID  string
	Tags      []string
	Raw       map[string]any // original payload, for debugging only
}

// Opportunity is the canonical record produced by the pipeline.
// Stages never mutate an Opportunity; they derive copies through the With* methods.
// Score is kept on a 0..1 scale; use Score100 at display and storage boundaries.
type Opportunity struct {
	Title        string     `json:"title"`
	Summary      string     `json:"summary"`
	ContentURL   string     `json:"content_url"`
	CanonicalURL string     `json:"canonical_url"`
	Source       string     `json:"source"`
	SourceID     string     `json:"source_id"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	DeadlineAt   *time.Time `json:"deadline_at,omitempty"`
	Tags         []string   `json:"tags"`

	Category      Category `json:"category"`
	Urgent        bool     `json:"urgent"`
	LimitedTime   bool     `json:"limited_time"`
	Score         float64  `json:"score"`
	PrepChecklist []string `json:"prep_checklist,omitempty"`

	TrackedProgramID   string `json:"tracked_program_id,omitempty"`
	TrackedProgramName string `json:"tracked_program_name,omitempty"`
}

// Classification groups the fields assigned by the classifier.
type Classification struct {
	Category      Category
	Urgent        bool
	LimitedTime   bool
	PrepChecklist []string
}

// Enrichment groups the fields rewritten by a tracked-program match.
type Enrichment struct {
	Score       float64
	Urgent      bool
	Category    Category
	Summary     string
	ProgramID   string
	ProgramName string
}

func (o Opportunity) clone() Opportunity {
	o.Tags = cloneStrings(o.Tags)
	o.PrepChecklist = cloneStrings(o.PrepChecklist)
	o.PublishedAt = cloneTime(o.PublishedAt)
	o.DeadlineAt = cloneTime(o.DeadlineAt)
	return o
}

func (o Opportunity) WithClassification(c Classification) Opportunity {
	out := o.clone()
	out.Category = c.Category
	out.Urgent = c.Urgent
	out.LimitedTime = c.LimitedTime
	out.PrepChecklist = cloneStrings(c.PrepChecklist)
	return out
}

func (o Opportunity) WithScore(score float64) Opportunity {
	out := o.clone()
	out.Score = score
	return out
}

func (o Opportunity) WithEnrichment(e Enrichment) Opportunity {
	out := o.clone()
	out.Score = e.Score
	out.Urgent = e.Urgent
	out.Category = e.Category
	out.Summary = e.Summary
	out.TrackedProgramID = e.ProgramID
	out.TrackedProgramName = e.ProgramName
	return out
}

// Score100 returns the score on the 0..100 display scale, rounded to one decimal.
func (o Opportunity) Score100() float64 {
	return ScoreTo100(o.Score)
}

// Text returns the lowercased title and summary used for keyword matching.
func (o Opportunity) Text() string {
	return strings.ToLower(o.Title + " " + o.Summary)
}

// ScoreTo100 converts an internal 0..1 score to the 0..100 scale.
func ScoreTo100(score float64) float64 {
	return math.Round(score*1000) / 10
}

// ScoreFrom100 converts a 0..100 score back to the internal scale.
func ScoreFrom100(score float64) float64 {
	return math.Round(score*10) / 1000
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
