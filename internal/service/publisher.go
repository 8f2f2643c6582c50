// Package service publishes property domain events to RabbitMQ.  Publishing
// is best effort: errors are logged and returned so callers can ignore them
// without interrupting the request.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/smoothmove/internal/queue"
)

// Publisher sends property events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev queue.PropertyEvent) error
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.PropertyEvent) error { return nil }

// AMQPPublisher publishes JSON events to a durable queue on the default
// exchange.  A connection is dialed per publish; listing changes are rare
// enough that a long-lived channel is not worth its reconnect logic.
type AMQPPublisher struct {
	URL   string
	Queue string
}

func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Queue: queueName}
}

// Publish marks messages persistent so they survive broker restarts.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.PropertyEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return p.fail("dial", ev, err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return p.fail("channel open", ev, err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return p.fail("queue declare", ev, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return p.fail("marshal", ev, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange routes by queue name
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, msg); err != nil {
		return p.fail("publish", ev, err)
	}
	slog.Debug("event published", "type", ev.Type, "event_id", ev.EventID, "property_id", ev.PropertyID)
	return nil
}

func (p *AMQPPublisher) fail(step string, ev queue.PropertyEvent, err error) error {
	slog.Warn("rabbitmq: "+step+" failed", "type", ev.Type, "property_id", ev.PropertyID, "error", err)
	return fmt.Errorf("rabbitmq %s: %w", step, err)
}
