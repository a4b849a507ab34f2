package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/app"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/subscribers"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"golang.org/x/sync/errgroup"
)

const serviceName = "prioritiai-worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, serviceName, cli.Version, os.Stdout)
	logger.Info("starting prioritiai worker", "transport", cfg.EventTransport)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:        cfg.TracingEnabled(),
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		ServiceName:    serviceName,
		ServiceVersion: cli.Version,
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	publisher, err := newPublisher(cfg, container, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close publisher", "error", err)
		}
	}()

	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	processorConfig.Metrics = container.Metrics
	processor := outbox.NewProcessor(container.OutboxRepo, publisher, processorConfig, logger)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.OutboxProcessorEnabled {
		logger.Info("starting outbox processor",
			"poll_interval", processorConfig.PollInterval,
			"batch_size", processorConfig.BatchSize,
			"max_retries", processorConfig.MaxRetries,
		)
		g.Go(func() error { return processor.Run(ctx) })
		g.Go(func() error { return cleanupLoop(ctx, cfg, processor, container.Metrics, logger) })
		g.Go(func() error { return statsLoop(ctx, cfg.OutboxStatsInterval, processor, logger) })
	} else {
		logger.Info("outbox processor disabled")
	}

	if cfg.IntakeEnabled {
		consumer, err := newIntakeConsumer(cfg, container, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Warn("failed to close intake consumer", "error", err)
			}
		}()
		g.Go(func() error {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("intake consumer disabled")
	}

	if cfg.WorkerHealthAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(container, processor),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("shutting down worker")
	return err
}

// newPublisher picks the outbound transport. Development falls back to a
// no-op publisher when the broker is unreachable.
func newPublisher(cfg *config.Config, container *app.Container, logger *slog.Logger) (eventbus.Publisher, error) {
	if cfg.EventTransport == config.TransportKafka {
		p, err := eventbus.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopic, logger)
		if err != nil {
			return fallbackPublisher(cfg, logger, err)
		}
		logger.Info("kafka publisher initialized", "topic", cfg.KafkaEventsTopic)
		return p, nil
	}

	p, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		return fallbackPublisher(cfg, logger, err)
	}
	container.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusDegraded, p.Ping))
	logger.Info("rabbitmq publisher initialized", "exchange", eventbus.ExchangeName)
	return p, nil
}

func fallbackPublisher(cfg *config.Config, logger *slog.Logger, err error) (eventbus.Publisher, error) {
	if !cfg.IsDevelopment() {
		return nil, err
	}
	logger.Warn("event broker not available, using noop publisher", "error", err)
	return eventbus.NewNoopPublisher(logger), nil
}

func newIntakeConsumer(cfg *config.Config, container *app.Container, logger *slog.Logger) (eventbus.Consumer, error) {
	registry := eventbus.NewConsumerRegistry(logger)

	var consumer eventbus.Consumer
	if cfg.EventTransport == config.TransportKafka {
		kc, err := eventbus.NewKafkaConsumer(eventbus.KafkaConsumerConfig{
			Brokers:           cfg.KafkaBrokers,
			Topic:             cfg.KafkaTopic,
			GroupID:           cfg.KafkaGroupID,
			DefaultRoutingKey: subscribers.RoutingKeyTaskSubmitted,
			MaxAttempts:       cfg.IntakeMaxRetries,
			RetryBackoff:      time.Second,
			Logger:            logger,
		}, registry)
		if err != nil {
			return nil, err
		}
		consumer = kc
	} else {
		rc, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:                cfg.RabbitMQURL,
			QueueName:          cfg.IntakeQueue,
			Exchange:           eventbus.ExchangeName,
			DeadLetterExchange: cfg.IntakeDLX,
			Prefetch:           cfg.IntakePrefetch,
			Logger:             logger,
		}, registry)
		if err != nil {
			return nil, err
		}
		consumer = rc
	}

	consumer.RegisterConsumer(container.IntakeSubscriber)
	logger.Info("intake consumer initialized",
		"transport", cfg.EventTransport,
		"event_types", container.IntakeSubscriber.EventTypes(),
	)
	return consumer, nil
}

func cleanupLoop(ctx context.Context, cfg *config.Config, processor *outbox.Processor, metrics observability.Metrics, logger *slog.Logger) error {
	ticker := time.NewTicker(cfg.OutboxCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			deleted, err := observability.TimeOperation(ctx, metrics, logger, "outbox.cleanup",
				func(ctx context.Context) (int64, error) {
					return processor.Cleanup(ctx, cfg.OutboxRetentionDays)
				})
			if err != nil {
				continue
			}
			if deleted > 0 {
				logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
			}
		}
	}
}

func statsLoop(ctx context.Context, interval time.Duration, processor *outbox.Processor, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats := processor.Stats()
			logger.Info("outbox stats",
				"published", stats.Published,
				"failed", stats.Failed,
				"dead", stats.Dead,
				"pending", stats.Pending,
				"lag_seconds", stats.LagSeconds,
				"last_error_at", stats.LastErrorAt,
				"last_error", stats.LastError,
			)
		}
	}
}

func healthMux(container *app.Container, processor *outbox.Processor) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"outbox": processor.Stats(),
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		health := container.Health.GetOverallHealth(checkCtx)
		status := http.StatusOK
		if health.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	})
	mux.Handle("GET /metrics", container.Metrics.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
