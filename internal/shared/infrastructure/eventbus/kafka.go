package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// RoutingKeyHeader carries the routing key on Kafka messages.
const RoutingKeyHeader = "routing_key"

// KafkaConsumerConfig configures the Kafka consumer.
type KafkaConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string

	// DefaultRoutingKey applies to messages without a routing_key header.
	DefaultRoutingKey string

	// MaxAttempts bounds redelivery of a message that fails transiently.
	MaxAttempts int

	// RetryBackoff is the first delay between attempts; it doubles each time.
	RetryBackoff time.Duration

	Logger *slog.Logger
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads events from a topic with a consumer group and commits
// offsets only after a message is handled or given up on.
type KafkaConsumer struct {
	reader   messageReader
	cfg      KafkaConsumerConfig
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewKafkaConsumer creates a consumer group reader for cfg.Topic.
func NewKafkaConsumer(cfg KafkaConsumerConfig, registry *ConsumerRegistry) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "prioritiai-workers"
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return newKafkaConsumer(reader, cfg, registry), nil
}

func newKafkaConsumer(reader messageReader, cfg KafkaConsumerConfig, registry *ConsumerRegistry) *KafkaConsumer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	return &KafkaConsumer{reader: reader, cfg: cfg, registry: registry, logger: cfg.Logger}
}

// RegisterConsumer registers an event consumer. Kafka needs no bindings.
func (c *KafkaConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)
}

// Start consumes until ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("started consuming events", "topic", c.cfg.Topic, "group_id", c.cfg.GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("giving up on message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}

		commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			c.logger.Error("failed to commit offset", "offset", msg.Offset, "error", err)
		}
		cancel()
	}
}

// handle retries transient failures with exponential backoff.
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message) error {
	key := c.routingKey(msg)
	backoff := c.cfg.RetryBackoff

	var err error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		err = deliver(ctx, c.registry, c.logger, msg.Value, key)
		if err == nil || IsPermanent(err) {
			return err
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}
		c.logger.Warn("retrying message", "routing_key", key, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

func (c *KafkaConsumer) routingKey(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == RoutingKeyHeader {
			return string(h.Value)
		}
	}
	return c.cfg.DefaultRoutingKey
}

// Close closes the reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes outbox payloads to one topic. The routing key travels
// as a header and the message key.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// NewKafkaPublisher creates a publisher for topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(w, logger), nil
}

func newKafkaPublisher(w messageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: w, timeout: 3 * time.Second, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(routingKey),
		Value:   payload,
		Headers: []kafka.Header{{Key: RoutingKeyHeader, Value: []byte(routingKey)}},
		Time:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// SplitBrokers parses a comma separated broker list.
func SplitBrokers(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
