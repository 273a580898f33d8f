// Package domain defines the core interfaces and types for the
// eligibility determination engine.
package domain

import "context"

// Audit severities, matching the external logging subsystem's levels.
const (
	SeverityDebug    = "DEBUG"
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityError    = "ERROR"
	SeverityCritical = "CRITICAL"
)

// AuditLogger is the structured logging collaborator. The engine calls
// it at every meaningful pipeline step. Implementations must not assume
// anything in fields is safe to persist verbatim; callers only pass
// hashes and aggregate counts, never raw account numbers or message text.
type AuditLogger interface {
	Log(ctx context.Context, requestID, event, severity, message string, fields map[string]any)
}

// AuditEvent is the wire form of one audit log entry.
type AuditEvent struct {
	RequestID string         `json:"request_id"`
	Event     string         `json:"event"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}
