package events

import (
	"context"
	"fmt"
	"strings"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
)

const DefaultExchange = "rental_events"

// Publisher delivers outbox events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

type broker interface {
	Publish(ctx context.Context, exchange, routingKey, messageID string, body []byte) error
}

// RabbitPublisher publishes rental state changes to a topic exchange with
// routing keys of the form rental.<action>.
type RabbitPublisher struct {
	mq       broker
	exchange string
}

func NewRabbitPublisher(mq *RabbitMQ, exchange string) *RabbitPublisher {
	return newPublisher(mq, exchange)
}

func newPublisher(mq broker, exchange string) *RabbitPublisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &RabbitPublisher{mq: mq, exchange: exchange}
}

func (p *RabbitPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	routingKey, err := RoutingKey(event)
	if err != nil {
		return err
	}

	if err := p.mq.Publish(ctx, p.exchange, routingKey, event.ID, event.Payload); err != nil {
		logger.Error("Failed to publish rental event", "eventID", event.ID, "rentalID", event.AggregateID, "routingKey", routingKey, "error", err)
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}

	logger.Debug("Rental event published", "eventID", event.ID, "rentalID", event.AggregateID, "routingKey", routingKey)
	return nil
}

// RoutingKey derives the routing key from the event payload's action.
func RoutingKey(event *domain.OutboxEvent) (string, error) {
	if event.EventType != domain.EventTypeRentalStateChanged {
		return "rental.event", nil
	}
	payload, err := domain.DecodeRentalStateChanged(event)
	if err != nil {
		return "", err
	}
	if payload.Action == "" {
		return "rental.event", nil
	}
	return "rental." + strings.ToLower(payload.Action), nil
}
