package messaging

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

const (
	deadLetterExchange = "taxiwatch.dlx"
	exchangeKind       = "topic"
)

// RabbitMQ owns one connection and one channel shared by the publisher and
// consumers of a process.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	logger  *logger.Logger
	mu      sync.RWMutex
	closed  bool
}

// New dials cfg.URL, opens a channel and applies the prefetch limit.
func New(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	r := &RabbitMQ{conn: conn, channel: ch, config: cfg, logger: log.WithComponent("rabbitmq")}
	go r.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))

	r.logger.Info().Int("prefetch", cfg.PrefetchCount).Msg("connected to RabbitMQ")
	return r, nil
}

// watch logs an unexpected connection loss. Health reports it from then on.
func (r *RabbitMQ) watch(closed <-chan *amqp.Error) {
	err, ok := <-closed
	if !ok || err == nil {
		return
	}
	r.mu.RLock()
	deliberate := r.closed
	r.mu.RUnlock()
	if !deliberate {
		r.logger.Error().Err(err).Msg("RabbitMQ connection lost")
	}
}

// Channel returns the shared channel.
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Close closes the channel and then the connection.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.channel.Close(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to close channel")
	}
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}

// Health reports whether the connection is open.
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.conn.IsClosed() {
		return map[string]string{"status": "down", "error": "connection closed"}
	}
	return map[string]string{"status": "up"}
}

// DeclareExchange declares a durable topic exchange.
func (r *RabbitMQ) DeclareExchange(name string) error {
	return r.Channel().ExchangeDeclare(name, exchangeKind, true, false, false, false, nil)
}

// DeclareQueue declares a durable queue that dead-letters into the shared DLX.
func (r *RabbitMQ) DeclareQueue(name string) (amqp.Queue, error) {
	return r.Channel().QueueDeclare(name, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": deadLetterExchange,
	})
}

// BindQueue binds queueName to exchange for routingKey.
func (r *RabbitMQ) BindQueue(queueName, exchange, routingKey string) error {
	return r.Channel().QueueBind(queueName, routingKey, exchange, false, nil)
}

// DeclareDeadLetterQueue declares the DLX and a catch-all queue
// "dlq.<serviceName>" bound to it.
func (r *RabbitMQ) DeclareDeadLetterQueue(serviceName string) error {
	if err := r.DeclareExchange(deadLetterExchange); err != nil {
		return fmt.Errorf("failed to declare DLX exchange: %w", err)
	}

	queue := "dlq." + serviceName
	if _, err := r.Channel().QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ %s: %w", queue, err)
	}
	if err := r.BindQueue(queue, deadLetterExchange, "#"); err != nil {
		return fmt.Errorf("failed to bind DLQ %s: %w", queue, err)
	}
	return nil
}
