package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
)

// NATSLogger publishes audit events to the external logging subsystem
// over NATS. Publish failures degrade to slog so a broker outage never
// blocks or fails a request.
type NATSLogger struct {
	conn     *nats.Conn
	fallback *SlogLogger
}

// NewNATSLogger connects to NATS with resilience options and returns a
// NATS-backed audit logger.
func NewNATSLogger(cfg domain.AuditConfig) (*NATSLogger, error) {
	if cfg.NATSUrl == "" {
		cfg.NATSUrl = nats.DefaultURL
	}
	if cfg.NATSMaxReconnects == 0 {
		cfg.NATSMaxReconnects = 10
	}
	if cfg.NATSReconnectWait == 0 {
		cfg.NATSReconnectWait = 5
	}

	opts := []nats.Option{
		nats.MaxReconnects(cfg.NATSMaxReconnects),
		nats.ReconnectWait(time.Duration(cfg.NATSReconnectWait) * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.Warn("audit NATS disconnected",
				"error", err,
				"will_reconnect", !nc.IsClosed(),
			)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("audit NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.Info("audit NATS connection closed")
		}),
	}

	if cfg.NATSToken != "" {
		opts = append(opts, nats.Token(cfg.NATSToken))
	}

	conn, err := nats.Connect(cfg.NATSUrl, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("audit NATS connected",
		"url", conn.ConnectedUrl(),
		"server_id", conn.ConnectedServerId(),
	)

	return &NATSLogger{
		conn:     conn,
		fallback: NewSlogLogger(slog.Default()),
	}, nil
}

// Log publishes one audit event to eligibility.audit.<event>.
func (l *NATSLogger) Log(ctx context.Context, requestID, event, severity, message string, fields map[string]any) {
	entry := newEvent(requestID, event, severity, message, fields)

	data, err := json.Marshal(entry)
	if err != nil {
		l.fallback.Log(ctx, requestID, event, severity, message, fields)
		return
	}

	if err := l.conn.Publish(l.subject(event), data); err != nil {
		slog.Warn("audit publish failed, falling back to slog",
			"event", event,
			"error", err,
		)
		l.fallback.Log(ctx, requestID, event, severity, message, fields)
	}
}

// Ping checks NATS connectivity.
func (l *NATSLogger) Ping(ctx context.Context) error {
	if !l.conn.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}
	return l.conn.FlushWithContext(ctx)
}

// Close flushes pending events and closes the connection.
func (l *NATSLogger) Close() error {
	_ = l.conn.Flush()
	l.conn.Close()
	return nil
}

func (l *NATSLogger) subject(event string) string {
	return "eligibility.audit." + event
}
