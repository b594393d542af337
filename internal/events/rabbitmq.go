package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"rentacar-backend/internal/logger"
)

const (
	maxConnectAttempts = 10
	maxRetryDelay      = 30 * time.Second
	publishTimeout     = 5 * time.Second
)

// publishChannel is the subset of *amqp.Channel used for publishing.
type publishChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQ holds one connection and channel to the broker.
type RabbitMQ struct {
	url  string
	conn *amqp.Connection
	ch   publishChannel
	mu   sync.RWMutex
}

// Dial connects to url, retrying with a growing delay until ctx is done or
// the attempts are exhausted.
func Dial(ctx context.Context, url string) (*RabbitMQ, error) {
	mq := &RabbitMQ{url: url}
	retryDelay := time.Second

	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		logger.Info("Connecting to RabbitMQ", "attempt", attempt, "maxAttempts", maxConnectAttempts)
		err := mq.connect()
		if err == nil {
			logger.Info("Connected to RabbitMQ", "attempt", attempt)
			return mq, nil
		}
		logger.Error("RabbitMQ connection attempt failed", "attempt", attempt, "error", err)
		if attempt == maxConnectAttempts {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxConnectAttempts, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
			retryDelay = time.Duration(float64(retryDelay) * 1.5)
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
		}
	}
	return nil, fmt.Errorf("unexpected error: retry loop completed without success")
}

func (mq *RabbitMQ) connect() error {
	conn, err := amqp.Dial(mq.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	mq.mu.Lock()
	mq.conn = conn
	mq.ch = ch
	mq.mu.Unlock()
	return nil
}

func (mq *RabbitMQ) channel() publishChannel {
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	return mq.ch
}

// DeclareExchange declares a durable topic exchange.
func (mq *RabbitMQ) DeclareExchange(name string) error {
	ch := mq.channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}
	if err := ch.ExchangeDeclare(name, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", name, err)
	}
	return nil
}

// Publish sends a persistent JSON message, bounded by a 5 second timeout.
func (mq *RabbitMQ) Publish(ctx context.Context, exchange, routingKey, messageID string, body []byte) error {
	ch := mq.channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return ch.PublishWithContext(
		publishCtx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
}

func (mq *RabbitMQ) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	var firstErr error
	if mq.ch != nil {
		if err := mq.ch.Close(); err != nil {
			firstErr = err
		}
		mq.ch = nil
	}
	if mq.conn != nil {
		if err := mq.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		mq.conn = nil
	}
	return firstErr
}
