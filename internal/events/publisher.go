package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
)

// IncidentProcessed summarizes a processed incident for downstream consumers
type IncidentProcessed struct {
	IncidentID    string    `json:"incident_id"`
	Severity      string    `json:"severity"`
	SourceSystem  string    `json:"source_system"`
	Status        string    `json:"status"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	Playbook      string    `json:"playbook,omitempty"`
	Score         float64   `json:"score,omitempty"`
	MTTRMinutes   float64   `json:"mttr_minutes"`
	ActionsTotal  int       `json:"actions_total"`
	ActionsFailed int       `json:"actions_failed"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// Publisher emits incident outcome events
type Publisher interface {
	PublishIncident(ctx context.Context, evt IncidentProcessed) error
	Close() error
}

// NATSPublisher publishes events as JSON on a NATS subject
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *logger.Logger
}

// NewNATSPublisher connects to NATS
func NewNATSPublisher(url, subject string, log *logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("soar"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{
		conn:    nc,
		subject: subject,
		logger:  log.WithComponent("events"),
	}, nil
}

// PublishIncident publishes a processed incident summary
func (p *NATSPublisher) PublishIncident(ctx context.Context, evt IncidentProcessed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.logger.WithFields(map[string]interface{}{
		"subject":     p.subject,
		"incident_id": evt.IncidentID,
	}).Debug("Incident event published")
	return nil
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	if err := p.conn.Flush(); err != nil {
		p.logger.WithError(err).Warn("Failed to flush NATS connection")
	}
	p.conn.Close()
	return nil
}

// NopPublisher discards events
type NopPublisher struct{}

// PublishIncident does nothing
func (NopPublisher) PublishIncident(context.Context, IncidentProcessed) error { return nil }

// Close does nothing
func (NopPublisher) Close() error { return nil }
