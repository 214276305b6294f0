// Package core contains the business logic for yishu: the question catalog,
// the interview state machine, answer analysis, follow-up generation,
// biography generation, dictation policy and configuration.
package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yishu-dev/yishu/pkg/models"
)

// ConfigFileName is the base name of the configuration file, without extension.
const ConfigFileName = ".yishuconfig"

// ConfigurationManager loads and validates the .yishuconfig.yaml file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper. Values
// resolve in the order: YISHU_* environment variables, the config file,
// then defaults.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .yishuconfig.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Subject: models.SubjectConfig{
			Name:   DefaultSubjectName,
			UserID: "local",
		},
		Biography: models.BiographyConfig{
			DefaultStyle: DefaultStyleKey,
			Timeout:      30 * time.Second,
		},
		Analysis: models.AnalysisConfig{
			Timeout: 10 * time.Second,
		},
		Storage: models.StorageConfig{
			Backend: "file",
		},
		Speech: models.SpeechConfig{
			Provider:      "mock",
			MinConfidence: DefaultMinConfidence,
		},
		Export: models.ExportConfig{
			Dir:           "exports",
			DefaultFormat: "text",
			SES: models.SESConfig{
				Region:   "us-east-1",
				FromName: "yishu",
			},
		},
		Notifications: models.NotificationConfig{
			Alerts: models.AlertConfig{
				StaleDays:       7,
				MinCompleteness: 50,
				MinAnalyzed:     3,
			},
		},
	}
}

func setDefaults(v *viper.Viper, cfg *models.GlobalConfig) {
	v.SetDefault("subject.name", cfg.Subject.Name)
	v.SetDefault("subject.user_id", cfg.Subject.UserID)
	v.SetDefault("catalog.path", cfg.Catalog.Path)
	v.SetDefault("biography.default_style", cfg.Biography.DefaultStyle)
	v.SetDefault("biography.styles_path", cfg.Biography.StylesPath)
	v.SetDefault("biography.simulated_latency", cfg.Biography.SimulatedLatency)
	v.SetDefault("biography.timeout", cfg.Biography.Timeout)
	v.SetDefault("analysis.simulated_latency", cfg.Analysis.SimulatedLatency)
	v.SetDefault("analysis.timeout", cfg.Analysis.Timeout)
	v.SetDefault("analysis.seed", cfg.Analysis.Seed)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("speech.provider", cfg.Speech.Provider)
	v.SetDefault("speech.transcript_path", cfg.Speech.TranscriptPath)
	v.SetDefault("speech.min_confidence", cfg.Speech.MinConfidence)
	v.SetDefault("speech.mock_delay", cfg.Speech.MockDelay)
	v.SetDefault("export.dir", cfg.Export.Dir)
	v.SetDefault("export.default_format", cfg.Export.DefaultFormat)
	v.SetDefault("export.ses.region", cfg.Export.SES.Region)
	v.SetDefault("export.ses.from_email", cfg.Export.SES.FromEmail)
	v.SetDefault("export.ses.from_name", cfg.Export.SES.FromName)
	v.SetDefault("notifications.slack.webhook_url", cfg.Notifications.Slack.WebhookURL)
	v.SetDefault("notifications.alerts.stale_days", cfg.Notifications.Alerts.StaleDays)
	v.SetDefault("notifications.alerts.min_completeness", cfg.Notifications.Alerts.MinCompleteness)
	v.SetDefault("notifications.alerts.min_analyzed", cfg.Notifications.Alerts.MinAnalyzed)
}

// LoadGlobalConfig reads .yishuconfig.yaml from the base path. A missing
// file is not an error; defaults and environment overrides still apply.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("YISHU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s.yaml: %w", ConfigFileName, err)
	}
	return cfg, nil
}

var (
	validBackends      = []string{"file", "sqlite", "postgres", "mysql", "memory"}
	validSpeech        = []string{"mock", "file"}
	validExportFormats = []string{"text", "word", "markdown", "html", "email"}
)

// ValidateConfig checks cfg for invalid values and reports every problem
// found in a single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.Subject.UserID) == "" {
		errs = append(errs, "subject.user_id must not be empty")
	}
	if cfg.Biography.SimulatedLatency < 0 {
		errs = append(errs, "biography.simulated_latency must be non-negative")
	}
	if cfg.Biography.Timeout < 0 {
		errs = append(errs, "biography.timeout must be non-negative")
	}
	if cfg.Analysis.SimulatedLatency < 0 {
		errs = append(errs, "analysis.simulated_latency must be non-negative")
	}
	if cfg.Analysis.Timeout < 0 {
		errs = append(errs, "analysis.timeout must be non-negative")
	}

	if !slices.Contains(validBackends, cfg.Storage.Backend) {
		errs = append(errs, fmt.Sprintf("storage.backend %q is invalid, must be one of: %s",
			cfg.Storage.Backend, strings.Join(validBackends, ", ")))
	}
	if (cfg.Storage.Backend == "postgres" || cfg.Storage.Backend == "mysql") && cfg.Storage.DSN == "" {
		errs = append(errs, fmt.Sprintf("storage.dsn is required for the %s backend", cfg.Storage.Backend))
	}

	if !slices.Contains(validSpeech, cfg.Speech.Provider) {
		errs = append(errs, fmt.Sprintf("speech.provider %q is invalid, must be one of: %s",
			cfg.Speech.Provider, strings.Join(validSpeech, ", ")))
	}
	if cfg.Speech.Provider == "file" && cfg.Speech.TranscriptPath == "" {
		errs = append(errs, "speech.transcript_path is required for the file provider")
	}
	if cfg.Speech.MinConfidence < 0 || cfg.Speech.MinConfidence > 1 {
		errs = append(errs, fmt.Sprintf("speech.min_confidence %.2f is invalid, must be between 0 and 1",
			cfg.Speech.MinConfidence))
	}

	if !slices.Contains(validExportFormats, cfg.Export.DefaultFormat) {
		errs = append(errs, fmt.Sprintf("export.default_format %q is invalid, must be one of: %s",
			cfg.Export.DefaultFormat, strings.Join(validExportFormats, ", ")))
	}
	if cfg.Export.DefaultFormat == "email" && cfg.Export.SES.FromEmail == "" {
		errs = append(errs, "export.ses.from_email is required when the default format is email")
	}

	alerts := cfg.Notifications.Alerts
	if alerts.StaleDays < 0 {
		errs = append(errs, fmt.Sprintf("notifications.alerts.stale_days must be non-negative, got %d", alerts.StaleDays))
	}
	if alerts.MinCompleteness < 0 || alerts.MinCompleteness > 100 {
		errs = append(errs, fmt.Sprintf("notifications.alerts.min_completeness %d is invalid, must be between 0 and 100",
			alerts.MinCompleteness))
	}
	if alerts.MinAnalyzed < 0 {
		errs = append(errs, fmt.Sprintf("notifications.alerts.min_analyzed must be non-negative, got %d", alerts.MinAnalyzed))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
