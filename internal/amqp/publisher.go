// Package amqp publishes goal completion events to RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"gitlab.com/yelinaung/savings-tracker/internal/goals"
	"gitlab.com/yelinaung/savings-tracker/internal/logger"
	"gitlab.com/yelinaung/savings-tracker/internal/telemetry"
	"gitlab.com/yelinaung/savings-tracker/internal/tracker"
	"go.opentelemetry.io/otel/attribute"
)

// PublishTimeout bounds a single publish.
const PublishTimeout = 5 * time.Second

// channel is the subset of *amqp091.Channel used by Publisher.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

var _ tracker.Notifier = (*Publisher)(nil)

// Publisher sends completion events to a durable direct exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       channel
	exchange string
	queue    string
	now      func() time.Time
}

// NewPublisher dials url and declares the exchange. When queue is not empty
// a durable queue is declared and bound to completion events.
func NewPublisher(url, exchange, queue string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	p, err := newPublisher(ch, exchange, queue)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn

	logger.Log.Info().
		Str("exchange", exchange).
		Str("queue", queue).
		Msg("AMQP publisher ready")
	return p, nil
}

func newPublisher(ch channel, exchange, queue string) (*Publisher, error) {
	p := &Publisher{ch: ch, exchange: exchange, queue: queue, now: time.Now}
	if err := p.setup(); err != nil {
		return nil, fmt.Errorf("failed to set up exchange: %w", err)
	}
	return p, nil
}

func (p *Publisher) setup() error {
	if err := p.ch.ExchangeDeclare(p.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if p.queue == "" {
		return nil
	}
	if _, err := p.ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := p.ch.QueueBind(p.queue, EventGoalCompleted, p.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// GoalCompleted implements tracker.Notifier.
func (p *Publisher) GoalCompleted(ctx context.Context, userID string, event goals.CompletionEvent) error {
	msg := NewGoalCompletedMessage(userID, event, p.now())
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, EventGoalCompleted, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    msg.ID,
		Type:         msg.Type,
		Timestamp:    msg.OccurredAt,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	telemetry.Add(ctx, telemetry.EventsPublished, 1, attribute.String("type", msg.Type))
	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Str("goal_id", event.GoalID).
		Str("exchange", p.exchange).
		Msg("Published goal completion")
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
