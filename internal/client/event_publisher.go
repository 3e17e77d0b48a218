package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// WorkflowEventPublisher publishes workflow lifecycle events to NATS for
// consumption by downstream audit and notification services.
//
// Subject convention: esaf.workflow.<event_type>
// Event types: request_submitted, approval_required, request_approved,
//              request_rejected, request_auto_rejected, more_info_requested
//
// All publish operations are non-fatal: errors are logged but never
// propagated, so event delivery failures never interrupt the workflow.
type WorkflowEventPublisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// WorkflowEvent is the JSON schema published to NATS.
type WorkflowEvent struct {
	EventType  string         `json:"event_type"`
	RequestID  string         `json:"request_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewWorkflowEventPublisher connects to NATS at url. An empty url disables
// publishing: the returned publisher is nil-safe and every Publish becomes
// a no-op.
func NewWorkflowEventPublisher(url string, log zerolog.Logger) (*WorkflowEventPublisher, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url, nats.Name("be-esaf-workflow"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return &WorkflowEventPublisher{nc: nc, log: log}, nil
}

// Publish emits one workflow event. Subject: esaf.workflow.<eventType>.
func (p *WorkflowEventPublisher) Publish(ctx context.Context, eventType, requestID string, payload map[string]any) {
	if p == nil || p.nc == nil {
		return
	}

	event := WorkflowEvent{
		EventType:  eventType,
		RequestID:  requestID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("events: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("esaf.workflow.%s", eventType)
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("request_id", requestID).
			Msg("events: failed to publish NATS event (non-fatal)")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("request_id", requestID).
		Msg("events: event published")
}

// Close drains the NATS connection.
func (p *WorkflowEventPublisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Close()
	}
}
