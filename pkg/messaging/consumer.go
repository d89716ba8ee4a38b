package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/metrics"
)

const defaultMaxRetries = 3

// MessageHandler processes one decoded event. A returned error requeues the
// delivery until the retry budget is spent.
type MessageHandler func(ctx context.Context, event *Event) error

// outcome is what happened to a delivery.
type outcome string

const (
	outcomeAcked      outcome = "acked"
	outcomeIgnored    outcome = "ignored"
	outcomeRequeued   outcome = "requeued"
	outcomeDeadLetter outcome = "dead_lettered"
)

// Consumer reads one durable queue and dispatches events by type.
type Consumer struct {
	rmq        *RabbitMQ
	queueName  string
	handlers   map[string]MessageHandler
	maxRetries int
	logger     *logger.Logger
}

// NewConsumer declares queueName and returns a consumer for it.
func NewConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	if _, err := rmq.DeclareQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	maxRetries := rmq.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Consumer{
		rmq:        rmq,
		queueName:  queueName,
		handlers:   make(map[string]MessageHandler),
		maxRetries: maxRetries,
		logger:     log.WithComponent("consumer").WithQueue(queueName),
	}, nil
}

// Subscribe binds the queue to exchange, declaring the exchange if needed.
func (c *Consumer) Subscribe(exchange, routingKey string) error {
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if err := c.rmq.BindQueue(c.queueName, exchange, routingKey); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", c.queueName, err)
	}

	c.logger.Info().Str("exchange", exchange).Str("routing_key", routingKey).Msg("subscribed")
	return nil
}

// RegisterHandler sets the handler for eventType. Events without a handler
// are acknowledged and dropped.
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// Start begins delivery on a background goroutine that runs until ctx is
// done or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.rmq.Channel().Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", c.queueName, err)
	}

	c.logger.Info().Int("max_retries", c.maxRetries).Msg("consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Msg("consumer stopped")
				return
			case msg, ok := <-deliveries:
				if !ok {
					c.logger.Warn().Msg("delivery channel closed")
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error().Err(err).Int("body_len", len(msg.Body)).Msg("undecodable delivery")
		c.settle(msg, "unknown", outcomeDeadLetter)
		return
	}

	c.settle(msg, event.Type, c.dispatch(WithCorrelationID(ctx, event.CorrelationID), msg, &event))
}

func (c *Consumer) dispatch(ctx context.Context, msg amqp.Delivery, event *Event) outcome {
	handler, ok := c.handlers[event.Type]
	if !ok {
		c.logger.Debug().Str("event_type", event.Type).Msg("no handler for event type")
		return outcomeIgnored
	}

	log := c.logger.WithCorrelationID(event.CorrelationID)

	if err := handler(ctx, event); err != nil {
		retries := getRetryCount(msg)
		if retries >= c.maxRetries {
			log.Error().Err(err).Str("event_type", event.Type).Str("event_id", event.ID).Int("retry_count", retries).Msg("retries exhausted, dead-lettering")
			return outcomeDeadLetter
		}
		log.Warn().Err(err).Str("event_type", event.Type).Str("event_id", event.ID).Int("retry_count", retries).Msg("handler failed, requeueing")
		return outcomeRequeued
	}
	return outcomeAcked
}

func (c *Consumer) settle(msg amqp.Delivery, eventType string, o outcome) {
	var err error
	switch o {
	case outcomeAcked, outcomeIgnored:
		err = msg.Ack(false)
	case outcomeRequeued:
		err = msg.Nack(false, true)
	case outcomeDeadLetter:
		err = msg.Reject(false)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("outcome", string(o)).Msg("failed to settle delivery")
	}
	metrics.EventsConsumedTotal.WithLabelValues(eventType, string(o)).Inc()
}

// getRetryCount reads the dead-letter count the broker stamps in x-death.
func getRetryCount(msg amqp.Delivery) int {
	deaths, ok := msg.Headers["x-death"].([]interface{})
	if !ok {
		return 0
	}
	for _, death := range deaths {
		if d, ok := death.(amqp.Table); ok {
			if count, ok := d["count"].(int64); ok {
				return int(count)
			}
		}
	}
	return 0
}
