package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// ErrDeliveriesClosed is returned by Consume when the broker closes the
// deliveries channel, usually because the connection dropped.
var ErrDeliveriesClosed = errors.New("amqp deliveries channel closed")

// AMQPQueue publishes run requests to a durable RabbitMQ queue and consumes
// them with prefetch 1, so only one run is in flight per consumer.
type AMQPQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	name   string
	logger *logrus.Entry
}

func NewAMQPQueue(url, name string, logger *logrus.Entry) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, name: q.Name, logger: logger}, nil
}

func (q *AMQPQueue) Enqueue(_ context.Context, req RunRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode run request: %w", err)
	}
	err = q.ch.Publish(
		"",
		q.name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    req.RunID,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish run request: %w", err)
	}
	return nil
}

// Consume acks every delivery after handling it. A run is never requeued;
// unsent records are picked up by the next run instead.
func (q *AMQPQueue) Consume(ctx context.Context, h Handler) error {
	msgs, err := q.ch.Consume(
		q.name,
		"",
		false, // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	return q.consume(ctx, msgs, h)
}

func (q *AMQPQueue) consume(ctx context.Context, msgs <-chan amqp.Delivery, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return ErrDeliveriesClosed
			}
			var req RunRequest
			if err := json.Unmarshal(d.Body, &req); err != nil {
				q.logger.WithError(err).Warn("Invalid run request, dropping")
				d.Ack(false)
				continue
			}
			h(ctx, req)
			if err := d.Ack(false); err != nil {
				q.logger.WithError(err).WithField("run_id", req.RunID).Warn("Failed to ack run request")
			}
		}
	}
}

func (q *AMQPQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}
