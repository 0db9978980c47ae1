package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventLeadsImported    = "leads.imported"
	EventLeadStageChanged = "lead.stage_changed"
	EventLeadsStuck       = "leads.stuck"
)

type StuckLeadPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Stage     string  `json:"stage"`
	DaysStuck int     `json:"days_stuck"`
	Value     float64 `json:"value"`
}

type LeadEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	OwnerID string `json:"owner_id"`

	LeadID   string `json:"lead_id,omitempty"`
	LeadName string `json:"lead_name,omitempty"`
	Stage    string `json:"stage,omitempty"`

	Inserted int `json:"inserted,omitempty"`
	Rejected int `json:"rejected,omitempty"`

	StuckLeads []StuckLeadPayload `json:"stuck_leads,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

func NewImportedEvent(ownerID string, inserted, rejected int, at time.Time) LeadEvent {
	return LeadEvent{
		ID:         uuid.New().String(),
		Type:       EventLeadsImported,
		OwnerID:    ownerID,
		Inserted:   inserted,
		Rejected:   rejected,
		OccurredAt: at,
	}
}

func NewStageChangedEvent(ownerID, leadID, leadName, stage string, at time.Time) LeadEvent {
	return LeadEvent{
		ID:         uuid.New().String(),
		Type:       EventLeadStageChanged,
		OwnerID:    ownerID,
		LeadID:     leadID,
		LeadName:   leadName,
		Stage:      stage,
		OccurredAt: at,
	}
}

func NewStuckEvent(ownerID string, stuck []StuckLeadPayload, at time.Time) LeadEvent {
	return LeadEvent{
		ID:         uuid.New().String(),
		Type:       EventLeadsStuck,
		OwnerID:    ownerID,
		StuckLeads: stuck,
		OccurredAt: at,
	}
}

type QueueProducerInterface interface {
	PublishLeadEvent(ctx context.Context, event LeadEvent) error
}

// channelPublisher is the slice of *amqp.Channel the producer needs.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch channelPublisher
}

func NewProducer(ch channelPublisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadEvent(ctx context.Context, event LeadEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.ID,
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}

	return nil
}
