// Package audit provides implementations of the structured audit sink
// the engine reports pipeline events to.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// New creates an audit logger based on configuration.
func New(cfg domain.AuditConfig) (domain.AuditLogger, error) {
	switch cfg.Sink {
	case "", "slog":
		return NewSlogLogger(slog.Default()), nil
	case "nats":
		return NewNATSLogger(cfg)
	default:
		return nil, fmt.Errorf("unsupported audit sink: %s", cfg.Sink)
	}
}

// NewRequestID generates a unique request/correlation ID.
func NewRequestID() string {
	return uuid.New().String()
}

// HashText returns a non-reversible short hash of text for log
// correlation. Raw message text and account numbers are never logged;
// only this hash is.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

// SlogLogger writes audit events to a slog handler.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a slog-backed audit logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Log writes one audit event at the slog level matching severity.
func (l *SlogLogger) Log(ctx context.Context, requestID, event, severity, message string, fields map[string]any) {
	attrs := make([]any, 0, 2+2*len(fields))
	attrs = append(attrs, "request_id", requestID, "event", event)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}

	switch severity {
	case domain.SeverityDebug:
		l.logger.DebugContext(ctx, message, attrs...)
	case domain.SeverityWarning:
		l.logger.WarnContext(ctx, message, attrs...)
	case domain.SeverityError, domain.SeverityCritical:
		l.logger.ErrorContext(ctx, message, attrs...)
	default:
		l.logger.InfoContext(ctx, message, attrs...)
	}
}

// newEvent assembles the wire form of an audit entry.
func newEvent(requestID, event, severity, message string, fields map[string]any) *domain.AuditEvent {
	return &domain.AuditEvent{
		RequestID: requestID,
		Event:     event,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Fields:    fields,
	}
}
