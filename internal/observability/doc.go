// Package observability provides event logging, metrics and alerting for
// yishu. Events are persisted as JSON Lines; metrics and alerts are derived
// on demand by reading the log back.
package observability
