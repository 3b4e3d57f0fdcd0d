// Package queue wraps amqp091-go with the durable-queue, persistent-delivery,
// prefetch-1-manual-ack conventions used throughout the original source's
// lapin-based producers and consumers.
package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client owns one connection and one channel to the broker. It is safe for
// concurrent Publish calls but Consume should be called once per Client.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// Connect dials url, opens a channel, and declares queue as durable so
// messages survive a broker restart.
func Connect(url, queue string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue: declare %s: %w", queue, err)
	}

	return &Client{conn: conn, channel: ch, queue: queue}, nil
}

// Close tears down the channel and connection.
func (c *Client) Close() error {
	_ = c.channel.Close()
	return c.conn.Close()
}

// Publish sends body to the queue as a persistent message, so it is written
// to disk by the broker and survives a restart before being consumed.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	return c.channel.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Purge discards every message currently sitting in the queue, returning the
// number removed. Used by the retrigger tool's --purge-queue flag.
func (c *Client) Purge(ctx context.Context) (int, error) {
	return c.channel.QueuePurge(c.queue, false)
}

// Handler processes one delivery's body. Returning an error nacks the
// message with requeue so it is redelivered.
type Handler func(ctx context.Context, body []byte) error

// Consume sets prefetch to one in-flight delivery (matching the original
// encoder's BasicQos(prefetch_count=1)) and runs handler for each message,
// acking only after handler returns nil and nacking-with-requeue otherwise.
// It blocks until ctx is canceled or the delivery channel closes.
func (c *Client) Consume(ctx context.Context, consumerTag string, handler Handler) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("queue: set qos: %w", err)
	}

	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue: consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := handler(ctx, delivery.Body); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			if err := delivery.Ack(false); err != nil {
				return fmt.Errorf("queue: ack delivery: %w", err)
			}
		}
	}
}
