package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// logEvent writes to logger when one is configured. Logging failures never
// affect the operation being logged.
func logEvent(logger EventLogger, eventType string, data map[string]any) {
	if logger == nil {
		return
	}
	_ = logger.LogEvent(eventType, data)
}
