package config

import (
	"strings"

	"github.com/NiranjanGhising/AI-Data-Science-News-bot/internal/models"
)

type TrackedPrograms struct {
	Programs []models.TrackedProgram `yaml:"tracked_programs"`
	Alerts   models.AlertSettings    `yaml:"alert_settings"`
}

// LoadTrackedPrograms reads tracked_programs.yaml. Category defaults to program and priority to medium.
func LoadTrackedPrograms(path string) (TrackedPrograms, error) {
	var tp TrackedPrograms
	if err := loadYAML(path, &tp); err != nil {
		return TrackedPrograms{}, err
	}
	for i := range tp.Programs {
		p := &tp.Programs[i]
		p.Category = models.ParseCategory(string(p.Category))
		p.Priority = models.Priority(strings.ToLower(strings.TrimSpace(string(p.Priority))))
		if p.Priority == "" {
			p.Priority = models.PriorityMedium
		}
	}
	return tp, nil
}
