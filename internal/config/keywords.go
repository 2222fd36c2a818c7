package config

import (
	"fmt"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
	"gopkg.in/yaml.v3"
)

// Keywords is the keyword taxonomy from keywords.yaml.
type Keywords struct {
	// CategoryRules is evaluated in order; the first rule whose keywords match wins.
	CategoryRules CategoryRules `yaml:"category_rules"`
	// CategoryKeywords is the mapping form of the same rules, read in document order.
	CategoryKeywords CategoryRules `yaml:"category_keywords"`

	UrgencyKeywords     []string          `yaml:"urgency_keywords"`
	LimitedTimeKeywords []string          `yaml:"limited_time_keywords"`
	SkillKeywords       []string          `yaml:"skill_keywords"`
	NegativeKeywords    []string          `yaml:"negative_keywords"`
	Recurrence          RecurrenceRules   `yaml:"recurrence"`
	Relevance           RelevanceKeywords `yaml:"relevance"`
}

type CategoryRule struct {
	Category models.Category `yaml:"category"`
	Keywords []string        `yaml:"keywords"`
}

// CategoryRules accepts either a sequence of {category, keywords} or a
// mapping of category to keyword list. Both keep the order written in the file.
type CategoryRules []CategoryRule

func (r *CategoryRules) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []CategoryRule
		if err := node.Decode(&list); err != nil {
			return err
		}
		for i := range list {
			list[i].Category = models.ParseCategory(string(list[i].Category))
		}
		*r = list
	case yaml.MappingNode:
		out := make(CategoryRules, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var kws []string
			if err := node.Content[i+1].Decode(&kws); err != nil {
				return fmt.Errorf("category %q: %w", node.Content[i].Value, err)
			}
			out = append(out, CategoryRule{
				Category: models.ParseCategory(node.Content[i].Value),
				Keywords: kws,
			})
		}
		*r = out
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("category rules: unexpected scalar %q", node.Value)
		}
	}
	return nil
}

// RecurrenceRule attaches a prep checklist to items mentioning one of its triggers.
type RecurrenceRule struct {
	ID            string   `yaml:"id"`
	Triggers      []string `yaml:"triggers"`
	PrepChecklist []string `yaml:"prep_checklist"`
}

// RecurrenceRules accepts a sequence or a mapping keyed by rule id, in file order.
type RecurrenceRules []RecurrenceRule

func (r *RecurrenceRules) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []RecurrenceRule
		if err := node.Decode(&list); err != nil {
			return err
		}
		*r = list
	case yaml.MappingNode:
		out := make(RecurrenceRules, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var rule RecurrenceRule
			if err := node.Content[i+1].Decode(&rule); err != nil {
				return fmt.Errorf("recurrence %q: %w", node.Content[i].Value, err)
			}
			rule.ID = node.Content[i].Value
			out = append(out, rule)
		}
		*r = out
	}
	return nil
}

// RelevanceKeywords overrides the relevance policy's built-in lists when non-empty.
type RelevanceKeywords struct {
	StrongCTA    []string `yaml:"strong_cta"`
	BroadTerms   []string `yaml:"broad_terms"`
	SecondaryCTA []string `yaml:"secondary_cta"`
}

// Rules returns the effective ordered category rules.
func (k Keywords) Rules() CategoryRules {
	if len(k.CategoryRules) > 0 {
		return k.CategoryRules
	}
	return k.CategoryKeywords
}

// LoadKeywords reads keywords.yaml. A missing or malformed file yields empty keywords.
func LoadKeywords(path string) (Keywords, error) {
	var kw Keywords
	if err := loadYAML(path, &kw); err != nil {
		return Keywords{}, err
	}
	return kw, nil
}
