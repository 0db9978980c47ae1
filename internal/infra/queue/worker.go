package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const stageClosedWon = "Closed Won"

// Notifier turns lead events into outbound messages (mail).
type Notifier interface {
	SendImportSummary(ctx context.Context, ev LeadEvent) error
	SendDealWon(ctx context.Context, ev LeadEvent) error
	SendStuckDigest(ctx context.Context, ev LeadEvent) error
}

type consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel  consumer
	Notifier Notifier
	Logger   *zap.Logger
}

func NewWorker(ch consumer, notifier Notifier, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Notifier: notifier, Logger: logger}
}

// Start consumes until ctx is cancelled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	w.Logger.Info("lead event worker listening", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var ev LeadEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		w.Logger.Error("malformed lead event, dead-lettering", zap.Error(err))
		d.Nack(false, false)
		return
	}

	if err := w.processMessage(ctx, ev); err != nil {
		w.Logger.Error("lead event failed",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type),
			zap.Error(err))
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}

func (w *Worker) processMessage(ctx context.Context, ev LeadEvent) error {
	switch ev.Type {
	case EventLeadsImported:
		return w.Notifier.SendImportSummary(ctx, ev)
	case EventLeadStageChanged:
		if ev.Stage != stageClosedWon {
			return nil
		}
		return w.Notifier.SendDealWon(ctx, ev)
	case EventLeadsStuck:
		if len(ev.StuckLeads) == 0 {
			return nil
		}
		return w.Notifier.SendStuckDigest(ctx, ev)
	default:
		// Unknown events are acked so they do not pile up in the DLQ.
		w.Logger.Warn("ignoring unknown lead event", zap.String("type", ev.Type))
		return nil
	}
}
