package models

import "time"

// SubjectConfig identifies who the interview is about.
type SubjectConfig struct {
	Name   string `yaml:"name" mapstructure:"name"`
	UserID string `yaml:"user_id" mapstructure:"user_id"`
}

// CatalogConfig points at an alternative question bank.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BiographyConfig holds narrative generation settings.
type BiographyConfig struct {
	DefaultStyle     string        `yaml:"default_style" mapstructure:"default_style"`
	StylesPath       string        `yaml:"styles_path" mapstructure:"styles_path"`
	SimulatedLatency time.Duration `yaml:"simulated_latency" mapstructure:"simulated_latency"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AnalysisConfig holds answer analysis settings. A zero Seed means the
// follow-up picker is seeded from the clock.
type AnalysisConfig struct {
	SimulatedLatency time.Duration `yaml:"simulated_latency" mapstructure:"simulated_latency"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Seed             int64         `yaml:"seed" mapstructure:"seed"`
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
}

// SpeechConfig selects the dictation provider.
type SpeechConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"`
	TranscriptPath string        `yaml:"transcript_path" mapstructure:"transcript_path"`
	MinConfidence  float64       `yaml:"min_confidence" mapstructure:"min_confidence"`
	MockDelay      time.Duration `yaml:"mock_delay" mapstructure:"mock_delay"`
}

// SESConfig configures the e-mail export sink.
type SESConfig struct {
	Region    string `yaml:"region" mapstructure:"region"`
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	FromName  string `yaml:"from_name" mapstructure:"from_name"`
}

// ExportConfig holds document export settings.
type ExportConfig struct {
	Dir           string    `yaml:"dir" mapstructure:"dir"`
	DefaultFormat string    `yaml:"default_format" mapstructure:"default_format"`
	SES           SESConfig `yaml:"ses" mapstructure:"ses"`
}

// SlackConfig holds the Slack webhook used for alert delivery.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// AlertConfig holds alert thresholds.
type AlertConfig struct {
	StaleDays       int `yaml:"stale_days" mapstructure:"stale_days"`
	MinCompleteness int `yaml:"min_completeness" mapstructure:"min_completeness"`
	MinAnalyzed     int `yaml:"min_analyzed" mapstructure:"min_analyzed"`
}

// NotificationConfig groups outbound notification settings.
type NotificationConfig struct {
	Slack  SlackConfig `yaml:"slack" mapstructure:"slack"`
	Alerts AlertConfig `yaml:"alerts" mapstructure:"alerts"`
}

// GlobalConfig holds every setting read from .yishuconfig.yaml via Viper.
type GlobalConfig struct {
	Subject       SubjectConfig      `yaml:"subject" mapstructure:"subject"`
	Catalog       CatalogConfig      `yaml:"catalog" mapstructure:"catalog"`
	Biography     BiographyConfig    `yaml:"biography" mapstructure:"biography"`
	Analysis      AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Storage       StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Speech        SpeechConfig       `yaml:"speech" mapstructure:"speech"`
	Export        ExportConfig       `yaml:"export" mapstructure:"export"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
