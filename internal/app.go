// Package internal provides the App struct that wires all components of
// yishu together and initializes the CLI layer.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/yishu-dev/yishu/internal/cli"
	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/internal/integration"
	"github.com/yishu-dev/yishu/internal/observability"
	"github.com/yishu-dev/yishu/internal/storage"
	"github.com/yishu-dev/yishu/pkg/models"
)

// EventLogFileName is the JSONL event log kept in the base path.
const EventLogFileName = ".yishu_events.jsonl"

// App holds all service dependencies for yishu.
type App struct {
	BasePath string
	Config   *models.GlobalConfig

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	Store storage.KVStore

	// Core services
	Catalog    core.QuestionCatalog
	Styles     *core.StyleRegistry
	Interview  core.InterviewManager
	Flow       *core.InterviewFlow
	Biographer core.BiographyGenerator
	Dictation  *core.Dictation
	Notices    core.Notifier

	// Integration services
	Exporter *integration.Exporter

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of yishu. basePath is the
// directory holding .yishuconfig.yaml, the event log and the default
// state directory.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	// A missing .env is fine; it only carries secrets when present.
	if err := godotenv.Load(filepath.Join(basePath, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, EventLogFileName)
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		app.EventLog = nil
	}
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}

		thresholds := observability.DefaultAlertThresholds()
		alerts := cfg.Notifications.Alerts
		if alerts.StaleDays > 0 {
			thresholds.StaleDays = alerts.StaleDays
		}
		if alerts.MinCompleteness > 0 {
			thresholds.MinCompleteness = alerts.MinCompleteness
		}
		if alerts.MinAnalyzed > 0 {
			thresholds.MinAnalyzed = alerts.MinAnalyzed
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL, cfg.Subject.Name)
	}

	// --- Storage layer ---
	app.Store, err = storage.Open(cfg.Storage, basePath)
	if err != nil {
		app.closeEventLog()
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Backend, err)
	}

	// --- Core services ---
	app.Catalog, err = core.LoadQuestionCatalog(resolvePath(basePath, cfg.Catalog.Path))
	if err != nil {
		app.closeAll()
		return nil, err
	}
	app.Styles = core.DefaultStyleRegistry()
	if cfg.Biography.StylesPath != "" {
		if err := app.Styles.LoadFile(resolvePath(basePath, cfg.Biography.StylesPath)); err != nil {
			app.closeAll()
			return nil, err
		}
	}
	if _, ok := app.Styles.Lookup(cfg.Biography.DefaultStyle); !ok {
		app.closeAll()
		return nil, fmt.Errorf("biography.default_style %q: %w", cfg.Biography.DefaultStyle, core.ErrStyleNotFound)
	}

	app.Notices = cli.NewNoticePrinter(os.Stderr)

	app.Interview = core.NewInterviewManager(app.Catalog, app.Store, evtAdapter)
	app.Interview.Load()

	analyzer := core.NewAnswerAnalyzer(
		core.NewFollowUpEngine(cfg.Analysis.Seed),
		cfg.Analysis.SimulatedLatency,
		cfg.Analysis.Timeout,
	)
	app.Flow = core.NewInterviewFlow(app.Interview, analyzer, app.Notices, evtAdapter)
	app.Biographer = core.NewBiographyGenerator(
		app.Catalog,
		app.Styles,
		cfg.Biography.SimulatedLatency,
		cfg.Biography.Timeout,
		evtAdapter,
	)

	// --- Integration services ---
	mock := integration.NewMockSpeechCapturer(cfg.Speech.MockDelay, cfg.Analysis.Seed)
	primary := mock
	if cfg.Speech.Provider == "file" {
		primary = integration.NewFileSpeechCapturer(resolvePath(basePath, cfg.Speech.TranscriptPath))
	}
	app.Dictation = core.NewDictation(primary, mock, cfg.Speech.MinConfidence, app.Notices, evtAdapter)

	sinks := integration.NewFileSinks(resolvePath(basePath, cfg.Export.Dir))
	sesSink, err := integration.NewSESSink(context.Background(), cfg.Export.SES)
	if err != nil {
		// Non-fatal: the other formats still work without AWS credentials.
		if evtAdapter != nil {
			_ = evtAdapter.LogEvent("export.setup_failed", map[string]any{
				"format": "email",
				"error":  err.Error(),
			})
		}
	} else {
		sinks = append(sinks, sesSink)
	}
	app.Exporter = integration.NewExporter(evtAdapter, sinks...)

	// --- Wire CLI package-level variables ---
	cli.Interview = app.Interview
	cli.Flow = app.Flow
	cli.Biographer = app.Biographer
	cli.Dictation = app.Dictation
	cli.Exporter = app.Exporter

	cli.SubjectName = cfg.Subject.Name
	cli.UserID = cfg.Subject.UserID
	cli.DefaultStyle = cfg.Biography.DefaultStyle
	cli.DefaultFormat = cfg.Export.DefaultFormat

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App: the store and the event log
// file handle. It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing event log: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) closeEventLog() {
	if a.EventLog != nil {
		_ = a.EventLog.Close()
	}
}

func (a *App) closeAll() {
	_ = a.Close()
}

// ResolveBasePath determines the yishu data directory. It checks the
// YISHU_HOME env var, then walks up from the current directory looking for
// .yishuconfig.yaml, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("YISHU_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	// Walk up to find a directory containing .yishuconfig.yaml.
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fall back to cwd.
	cwd, _ := os.Getwd()
	return cwd
}

func resolvePath(basePath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(basePath, path)
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.NewEvent(eventType, data))
}
