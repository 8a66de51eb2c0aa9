package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"dailyfix/pkg/trace"
)

type MessageHandler func(ctx context.Context, data json.RawMessage) error

// Retryability decides whether a failed delivery is requeued or parked in
// the dead letter queue. It returns (retryable, label).
type Retryability func(err error) (bool, string)

type Consumer struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	retryable  Retryability
	dlq        *Publisher
	logger     *zap.Logger
}

// NewConsumer creates a consumer for a specific routing key with its own
// durable queue, e.g. "sync.requested" -> "sync.requested.q".
func NewConsumer(url, queueName, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, ExchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// SetRetryability installs the error classifier. Without one, every
// handler error is requeued.
func (c *Consumer) SetRetryability(r Retryability) {
	c.retryable = r
}

// SetDLQ installs a publisher for dead-lettered deliveries.
func (c *Consumer) SetDLQ(p *Publisher) {
	c.dlq = p
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming consumes deliveries until the channel closes. It blocks
// and should be called in a goroutine.
func (c *Consumer) StartConsuming() error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	msgs, err := c.channel.Consume(
		c.queue.Name,
		"dailyfix",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for msg := range msgs {
		ctx := trace.WithContext(context.Background(), trace.NewTraceID())

		err := c.handler(ctx, msg.Body)
		if err == nil {
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("Failed to ack message",
					zap.String("routing_key", c.routingKey),
					zap.Error(ackErr),
				)
			}
			continue
		}

		retryable := true
		label := "handler_error"
		if c.retryable != nil {
			retryable, label = c.retryable(err)
		}

		if retryable {
			c.logger.Warn("Handler failed, requeueing",
				zap.String("routing_key", c.routingKey),
				zap.String("error_type", label),
				zap.Error(err),
			)
			_ = msg.Nack(false, true)
			continue
		}

		c.logger.Error("Handler failed with non-retryable error, dead-lettering",
			zap.String("routing_key", c.routingKey),
			zap.String("error_type", label),
			zap.Error(err),
		)
		if c.dlq != nil {
			if dlqErr := c.dlq.PublishToDLQ(c.routingKey, msg.Body, err.Error()); dlqErr != nil {
				c.logger.Error("Failed to publish to DLQ",
					zap.String("routing_key", c.routingKey),
					zap.Error(dlqErr),
				)
			}
		}
		_ = msg.Ack(false)
	}

	return nil
}
