package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue publishes dispatches to a durable RabbitMQ queue so that they
// survive a restart between commit and submission.
type AMQPQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	name   string
	mu     sync.Mutex
	logger *zap.Logger
}

func NewAMQPQueue(url, name string, logger *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPQueue{conn: conn, ch: ch, name: name, logger: logger}, nil
}

func (q *AMQPQueue) Publish(ctx context.Context, campaignID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(Job{CampaignID: campaignID})
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	// amqp.Channel is not safe for concurrent publishing.
	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.ch.Publish(
		"",
		q.name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	return nil
}

// Consume acks a delivery once handler accepts it. A rejected delivery is
// requeued once, then dropped; the recovery sweep covers dropped campaigns.
func (q *AMQPQueue) Consume(ctx context.Context, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer func() {
		_ = ch.Close()
	}()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		q.name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return ErrClosed
			}
			q.handle(ctx, d, handler)
		}
	}
}

func (q *AMQPQueue) handle(ctx context.Context, d amqp.Delivery, handler Handler) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		q.logger.Warn("Dropping invalid job", zap.ByteString("body", d.Body), zap.Error(err))
		_ = d.Ack(false)
		return
	}

	if err := handler(ctx, job.CampaignID); err != nil {
		q.logger.Warn("Queued campaign was not accepted",
			zap.Int64("campaign_id", job.CampaignID),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err))
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	_ = d.Ack(false)
}

func (q *AMQPQueue) Ping() error {
	if q.conn.IsClosed() {
		return ErrClosed
	}
	return nil
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ch.Close(); err != nil && err != amqp.ErrClosed {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if err := q.conn.Close(); err != nil && err != amqp.ErrClosed {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
