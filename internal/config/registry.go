package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SourcesFile         = "sources.yaml"
	KeywordsFile        = "keywords.yaml"
	ScoringFile         = "scoring.yaml"
	TrackedProgramsFile = "tracked_programs.yaml"
)

const (
	KindOpportunity = "opportunity"
	KindNews        = "news"
)

// Registry holds the configuration for all data sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig defines a single feed polled by the pipeline.
type SourceConfig struct {
	ID               string       `yaml:"id"`
	Name             string       `yaml:"name"`
	URL              string       `yaml:"url"`
	Parser           string       `yaml:"parser"` // rss, atom, json, ics, html
	Kind             string       `yaml:"kind"`   // opportunity, news
	Enabled          *bool        `yaml:"enabled,omitempty"`
	RateLimitSeconds float64      `yaml:"rateLimitSeconds,omitempty"`
	Tags             []string     `yaml:"tags,omitempty"`
	Params           SourceParams `yaml:"params,omitempty"`
}

// SourceParams carries parser-specific settings.
type SourceParams struct {
	// json
	ItemsPath      string `yaml:"itemsPath,omitempty"`
	TitleField     string `yaml:"titleField,omitempty"`
	URLField       string `yaml:"urlField,omitempty"`
	SummaryField   string `yaml:"summaryField,omitempty"`
	PublishedField string `yaml:"publishedField,omitempty"`
	DeadlineField  string `yaml:"deadlineField,omitempty"`

	// html
	ItemSelector string `yaml:"itemSelector,omitempty"`
	LinkSelector string `yaml:"linkSelector,omitempty"`
}

// IsEnabled reports whether the source should run. Sources are enabled unless set otherwise.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Runnable reports whether the source is enabled and has a URL.
func (s SourceConfig) Runnable() bool {
	return s.IsEnabled() && strings.TrimSpace(s.URL) != ""
}

// normalize fills fallbacks: id from name or url, name from id, parser rss, kind opportunity.
func (s SourceConfig) normalize() SourceConfig {
	if s.ID == "" {
		s.ID = s.Name
	}
	if s.ID == "" {
		s.ID = s.URL
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Name == "" {
		s.Name = "source"
	}
	s.Parser = strings.ToLower(strings.TrimSpace(s.Parser))
	if s.Parser == "" {
		s.Parser = "rss"
	}
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	if s.Kind == "" {
		s.Kind = KindOpportunity
	}
	return s
}

// LoadRegistry reads sources.yaml. A missing file yields an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	var reg Registry
	if err := loadYAML(path, &reg); err != nil {
		return &Registry{}, err
	}
	for i := range reg.Sources {
		reg.Sources[i] = reg.Sources[i].normalize()
	}
	return &reg, nil
}

// Filter returns the runnable sources of the given kind.
func (r *Registry) Filter(kind string) []SourceConfig {
	if r == nil {
		return nil
	}
	var out []SourceConfig
	for _, s := range r.Sources {
		if s.Kind == kind && s.Runnable() {
			out = append(out, s)
		}
	}
	return out
}

// Bundle is every declarative file the pipeline reads.
type Bundle struct {
	Registry *Registry
	Keywords Keywords
	Scoring  Scoring
	Tracked  TrackedPrograms
}

// Load reads all config files from dir. Missing files degrade to defaults.
// Malformed files also degrade to defaults; their errors are joined and returned
// alongside a usable bundle so the caller can log and continue.
func Load(dir string) (*Bundle, error) {
	var errs []error

	reg, err := LoadRegistry(filepath.Join(dir, SourcesFile))
	if err != nil {
		errs = append(errs, err)
	}
	kw, err := LoadKeywords(filepath.Join(dir, KeywordsFile))
	if err != nil {
		errs = append(errs, err)
	}
	sc, err := LoadScoring(filepath.Join(dir, ScoringFile))
	if err != nil {
		errs = append(errs, err)
	}
	tp, err := LoadTrackedPrograms(filepath.Join(dir, TrackedProgramsFile))
	if err != nil {
		errs = append(errs, err)
	}

	return &Bundle{
		Registry: reg,
		Keywords: kw,
		Scoring:  sc,
		Tracked:  tp,
	}, errors.Join(errs...)
}

// loadYAML decodes path into out after expanding ${VAR} references.
// A missing file leaves out untouched and returns nil.
func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if strings.TrimSpace(expanded) == "" {
		return nil
	}
	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
