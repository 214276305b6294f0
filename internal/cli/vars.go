package cli

import (
	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/internal/integration"
	"github.com/yishu-dev/yishu/internal/observability"
)

// Interview service instances, set during app initialization in app.go.
var (
	Interview  core.InterviewManager
	Flow       *core.InterviewFlow
	Biographer core.BiographyGenerator
	Dictation  *core.Dictation
	Exporter   *integration.Exporter
)

// Defaults taken from .yishuconfig.yaml.
var (
	SubjectName   string
	UserID        string
	DefaultStyle  string
	DefaultFormat string
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
