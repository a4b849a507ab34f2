package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the durable queue the worker reads intake from.
const DefaultConsumerQueueName = "prioritiai.intake"

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string

	// DeadLetterExchange receives messages rejected with a permanent error.
	// Empty means they are dropped.
	DeadLetterExchange string

	// Prefetch is the number of unacknowledged deliveries held at once.
	Prefetch int

	Logger *slog.Logger
}

// RabbitMQConsumer reads events from a queue bound to the topic exchange.
// Transient handler failures are requeued; permanent ones are rejected.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	cfg      RabbitMQConsumerConfig
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	closed  chan struct{}
}

// NewRabbitMQConsumer connects and declares the exchange and queue.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	cfg.Logger.Info("RabbitMQ consumer connected",
		"queue", cfg.QueueName,
		"exchange", cfg.Exchange,
		"dead_letter_exchange", cfg.DeadLetterExchange,
	)

	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		cfg:      cfg,
		registry: registry,
		logger:   cfg.Logger,
		closed:   make(chan struct{}),
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg RabbitMQConsumerConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	var args amqp.Table
	if cfg.DeadLetterExchange != "" {
		if err := ch.ExchangeDeclare(cfg.DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare dead letter exchange: %w", err)
		}
		args = amqp.Table{"x-dead-letter-exchange": cfg.DeadLetterExchange}
	}

	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	return nil
}

// RegisterConsumer registers an event consumer and binds its routing keys to the queue.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.cfg.QueueName, key, c.cfg.Exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "routing_key", key, "error", err)
		}
	}
}

// Start consumes until ctx is cancelled or Close is called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.channel.Consume(c.cfg.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("started consuming events", "queue", c.cfg.QueueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed unexpectedly")
			}
			c.settle(d, deliver(ctx, c.registry, c.logger, d.Body, d.RoutingKey))
		}
	}
}

// settle acknowledges d according to the outcome of handling it.
func (c *RabbitMQConsumer) settle(d amqp.Delivery, err error) {
	var settleErr error
	switch {
	case err == nil:
		settleErr = d.Ack(false)
	case IsPermanent(err):
		c.logger.Warn("rejecting message", "routing_key", d.RoutingKey, "error", err)
		settleErr = d.Nack(false, false)
	default:
		c.logger.Error("requeueing message", "routing_key", d.RoutingKey, "error", err)
		settleErr = d.Nack(false, true)
	}
	if settleErr != nil {
		c.logger.Error("failed to settle delivery", "routing_key", d.RoutingKey, "error", settleErr)
	}
}

// Close stops the consume loop and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	c.running = false

	if err := c.channel.Close(); err != nil {
		c.logger.Warn("error closing channel", "error", err)
	}
	return c.conn.Close()
}
