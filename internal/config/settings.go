package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings is the process environment.
type Settings struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	ConfigDir   string `envconfig:"RADAR_CONFIG_DIR" default:"config/opportunity"`
	DataDir     string `envconfig:"RADAR_DATA_DIR" default:"data"`
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	TelegramToken  string `envconfig:"TG_TOKEN" default:""`
	TelegramChatID string `envconfig:"TG_CHAT_ID" default:""`

	AdminSecret string `envconfig:"ADMIN_SECRET" default:""`
	Port        string `envconfig:"PORT" default:"8081"`

	ForceRun           bool `envconfig:"FORCE_RUN" default:"false"`
	HTTPTimeoutSeconds int  `envconfig:"HTTP_TIMEOUT_SECONDS" default:"20"`
	AllowPrivateHosts  bool `envconfig:"ALLOW_PRIVATE_HOSTS" default:"false"`
}

// LoadSettings reads an optional .env file and then the environment.
func LoadSettings() (*Settings, error) {
	_ = godotenv.Load()

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	if strings.TrimSpace(s.ConfigDir) == "" {
		return fmt.Errorf("RADAR_CONFIG_DIR is required")
	}
	if strings.TrimSpace(s.DataDir) == "" {
		return fmt.Errorf("RADAR_DATA_DIR is required")
	}
	if s.HTTPTimeoutSeconds < 1 || s.HTTPTimeoutSeconds > 120 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be between 1 and 120")
	}
	if (s.TelegramToken == "") != (s.TelegramChatID == "") {
		return fmt.Errorf("TG_TOKEN and TG_CHAT_ID must be set together")
	}
	return nil
}

func (s *Settings) OpportunityDBPath() string {
	return filepath.Join(s.DataDir, "opportunity_radar.db")
}

func (s *Settings) NewsDBPath() string {
	return filepath.Join(s.DataDir, "news_radar.db")
}

// UsePostgres reports whether the item store should live in Postgres.
func (s *Settings) UsePostgres() bool {
	return strings.TrimSpace(s.DatabaseURL) != ""
}
