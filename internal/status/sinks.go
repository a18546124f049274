package status

import (
	"context"
	"time"

	"github.com/nerrad567/oscleash/internal/audit"
	"github.com/nerrad567/oscleash/internal/infrastructure/mqtt"
)

const auditTimeout = 5 * time.Second

// JSONPublisher publishes a JSON-encoded value to an MQTT topic.
// Satisfied by *mqtt.Client.
type JSONPublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MQTTSink publishes each event to its per-kind status topic. Connection
// events are retained so late subscribers see the current session.
type MQTTSink struct {
	pub    JSONPublisher
	topics mqtt.Topics
	logger Logger
}

// NewMQTTSink creates a sink publishing under topics.
func NewMQTTSink(pub JSONPublisher, topics mqtt.Topics, logger Logger) *MQTTSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTSink{pub: pub, topics: topics, logger: logger}
}

// HandleStatus implements Sink.
func (s *MQTTSink) HandleStatus(_ context.Context, ev Event) {
	var topic string
	retained := false
	switch ev.Kind {
	case KindConnection:
		topic, retained = s.topics.StatusConnection(), true
	case KindMovement:
		topic = s.topics.StatusMovement()
	case KindError:
		topic = s.topics.StatusError()
	default:
		return
	}
	if err := s.pub.PublishJSON(topic, ev, retained); err != nil {
		s.logger.Warn("publishing status to mqtt", "topic", topic, "error", err)
	}
}

// AuditSink records connection transitions and errors in the audit log.
// Movement events are not audited.
type AuditSink struct {
	repo   audit.Repository
	logger Logger
}

// NewAuditSink creates a sink writing to repo.
func NewAuditSink(repo audit.Repository, logger Logger) *AuditSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &AuditSink{repo: repo, logger: logger}
}

// HandleStatus implements Sink.
func (s *AuditSink) HandleStatus(ctx context.Context, ev Event) {
	entry := &audit.AuditLog{Source: audit.SourceBridge, CreatedAt: ev.At}
	switch ev.Kind {
	case KindConnection:
		entry.Peer = ev.Connection.Peer
		entry.Action = audit.ActionClientDisconnected
		if ev.Connection.Connected {
			entry.Action = audit.ActionClientConnected
		}
	case KindError:
		entry.Action = audit.ActionError
		entry.Details = map[string]any{"message": ev.Error.Message, "fatal": ev.Error.Fatal}
	default:
		return
	}

	// Detach from ctx so a shutdown does not lose the final disconnect entry.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := s.repo.Create(writeCtx, entry); err != nil {
		s.logger.Warn("writing audit entry", "action", entry.Action, "error", err)
	}
}

// ConnectionRecorder stores connection transitions as telemetry.
// Satisfied by *influxdb.Client.
type ConnectionRecorder interface {
	WriteConnection(connected bool, peer string, at time.Time)
}

// TelemetrySink forwards connection events to a time-series store.
type TelemetrySink struct {
	rec ConnectionRecorder
}

// NewTelemetrySink creates a sink writing to rec.
func NewTelemetrySink(rec ConnectionRecorder) *TelemetrySink {
	return &TelemetrySink{rec: rec}
}

// HandleStatus implements Sink.
func (s *TelemetrySink) HandleStatus(_ context.Context, ev Event) {
	if ev.Kind != KindConnection {
		return
	}
	s.rec.WriteConnection(ev.Connection.Connected, ev.Connection.Peer, ev.At)
}
