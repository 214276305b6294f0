package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	StaleDays       int `yaml:"stale_days" json:"stale_days"`
	MinCompleteness int `yaml:"min_completeness" json:"min_completeness"`
	MinAnalyzed     int `yaml:"min_analyzed" json:"min_analyzed"`
}

// DefaultAlertThresholds returns the default alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		StaleDays:       7,
		MinCompleteness: 50,
		MinAnalyzed:     3,
	}
}

// qualityWindow is how many of the most recent analyzed answers the
// quality alert averages over.
const qualityWindow = 5

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine by reading events and checking thresholds.
type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate reads events and checks all alert conditions, returning any triggered alerts.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now()
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}

	var alerts []Alert
	alerts = append(alerts, ae.checkStalledInterview(events, now)...)
	alerts = append(alerts, ae.checkAnswerQuality(events, now)...)
	alerts = append(alerts, ae.checkExportFailures(events, now)...)
	return alerts, nil
}

// checkStalledInterview fires when the latest session is neither completed
// nor reset and has had no activity for longer than the stale threshold.
func (ae *alertEngine) checkStalledInterview(events []Event, now time.Time) []Alert {
	var sessionID string
	var lastActivity time.Time
	open := false

	for _, event := range events {
		switch event.Type {
		case "session.started":
			sessionID, _ = event.Data["session_id"].(string)
			open = true
			lastActivity = event.Time
		case "session.completed", "session.reset":
			open = false
		default:
			if open && isInterviewActivity(event.Type) && event.Time.After(lastActivity) {
				lastActivity = event.Time
			}
		}
	}

	threshold := time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour
	if !open || now.Sub(lastActivity) <= threshold {
		return nil
	}
	return []Alert{{
		ID:          fmt.Sprintf("stalled-%s", sessionID),
		Condition:   "interview_stalled",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("interview %s has had no activity for more than %d days", sessionID, ae.thresholds.StaleDays),
		TriggeredAt: now,
	}}
}

func isInterviewActivity(eventType string) bool {
	switch eventType {
	case "session.resumed", "session.paused", "answer.saved", "answer.analyzed",
		"question.changed", "stage.advanced", "stage.jumped":
		return true
	}
	return false
}

// checkAnswerQuality averages the completeness of the most recent analyzed
// answers and fires when it is below the minimum.
func (ae *alertEngine) checkAnswerQuality(events []Event, now time.Time) []Alert {
	var scores []float64
	for _, event := range events {
		if event.Type == "answer.analyzed" {
			scores = append(scores, numberField(event.Data, "score"))
		}
	}
	if len(scores) == 0 || len(scores) < ae.thresholds.MinAnalyzed {
		return nil
	}
	if len(scores) > qualityWindow {
		scores = scores[len(scores)-qualityWindow:]
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))
	if avg >= float64(ae.thresholds.MinCompleteness) {
		return nil
	}
	return []Alert{{
		ID:          "answer-quality",
		Condition:   "low_answer_quality",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("average completeness of the last %d answers is %.0f, below %d", len(scores), avg, ae.thresholds.MinCompleteness),
		TriggeredAt: now,
	}}
}

// checkExportFailures fires when any export failed in the last 24 hours.
func (ae *alertEngine) checkExportFailures(events []Event, now time.Time) []Alert {
	failures := 0
	for _, event := range events {
		if event.Type == "export.failed" && now.Sub(event.Time) <= 24*time.Hour {
			failures++
		}
	}
	if failures == 0 {
		return nil
	}
	return []Alert{{
		ID:          "export-failures",
		Condition:   "export_failures",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("%d biography export(s) failed in the last 24 hours", failures),
		TriggeredAt: now,
	}}
}
