package observability

import (
	"fmt"
	"math"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	SessionsStarted      int            `json:"sessions_started"`
	InterviewsCompleted  int            `json:"interviews_completed"`
	AnswersSaved         int            `json:"answers_saved"`
	AnswersAnalyzed      int            `json:"answers_analyzed"`
	AvgCompleteness      float64        `json:"avg_completeness"`
	StagesAdvanced       int            `json:"stages_advanced"`
	BiographiesGenerated int            `json:"biographies_generated"`
	BiographiesByStyle   map[string]int `json:"biographies_by_style"`
	ExportsByFormat      map[string]int `json:"exports_by_format"`
	ExportFailures       int            `json:"export_failures"`
	SpeechCaptures       int            `json:"speech_captures"`
	PersistenceFailures  int            `json:"persistence_failures"`
	EventCount           int            `json:"event_count"`
	OldestEvent          *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent          *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		BiographiesByStyle: make(map[string]int),
		ExportsByFormat:    make(map[string]int),
	}
	m.EventCount = len(events)

	scoreSum := 0.0
	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "session.started":
			m.SessionsStarted++
		case "session.completed":
			m.InterviewsCompleted++
		case "answer.saved":
			m.AnswersSaved++
		case "answer.analyzed":
			m.AnswersAnalyzed++
			scoreSum += numberField(event.Data, "score")
		case "stage.advanced":
			m.StagesAdvanced++
		case "biography.generated":
			m.BiographiesGenerated++
			if style, ok := event.Data["style"].(string); ok {
				m.BiographiesByStyle[style]++
			}
		case "export.completed":
			if format, ok := event.Data["format"].(string); ok {
				m.ExportsByFormat[format]++
			}
		case "export.failed":
			m.ExportFailures++
		case "speech.captured":
			m.SpeechCaptures++
		case "persistence.save_failed", "persistence.load_failed":
			m.PersistenceFailures++
		}
	}

	if m.AnswersAnalyzed > 0 {
		m.AvgCompleteness = math.Round(scoreSum/float64(m.AnswersAnalyzed)*10) / 10
	}
	return m, nil
}

// numberField reads a numeric field that may have been decoded from JSON
// (float64) or set directly in memory (int).
func numberField(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
