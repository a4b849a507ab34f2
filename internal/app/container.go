package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/services"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/subscribers"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/infrastructure/cache"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/infrastructure/refiner"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Observability
	Metrics *observability.PrometheusMetrics
	Health  *observability.HealthRegistry

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	ScoredTaskRepo domain.ScoredTaskRepository
	AuditRepo      domain.PrivacyAuditRepository
	OutboxRepo     outbox.Repository
	ResultCache    domain.ResultCache

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Scoring
	Engine  *services.Engine
	Refiner *refiner.HTTPRefiner

	// Command Handlers
	ScoreTaskHandler    *commands.ScoreTaskHandler
	BatchScoreHandler   *commands.BatchScoreHandler
	RecalculateHandler  *commands.RecalculatePrioritiesHandler
	LockTaskHandler     *commands.LockTaskHandler
	UnlockTaskHandler   *commands.UnlockTaskHandler
	OverrideTaskHandler *commands.OverrideTaskHandler

	// Query Handlers
	GetPriorityResultHandler *queries.GetPriorityResultHandler
	GetScoredTaskHandler     *queries.GetScoredTaskHandler
	ListScoredTasksHandler   *queries.ListScoredTasksHandler
	ListPrivacyAuditHandler  *queries.ListPrivacyAuditHandler

	// Subscribers
	IntakeSubscriber *subscribers.IntakeSubscriber
}

// NewContainer connects to the configured database and Redis and wires every handler.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbCfg := database.Config{
		Driver:     database.DriverPostgres,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	}
	if cfg.IsSQLite() {
		dbCfg.Driver = database.DriverSQLite
	}
	return newContainer(ctx, cfg, dbCfg, logger)
}

// NewLocalContainer creates a container backed by the embedded SQLite store.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	return newContainer(ctx, cfg, database.Config{Driver: database.DriverSQLite, SQLitePath: path}, logger)
}

func newContainer(ctx context.Context, cfg *config.Config, dbCfg database.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, conn.Ping))
	logger.Info("connected to database", "driver", c.DBDriver.String())

	if err := runMigrations(ctx, conn); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repos, err := NewRepositories(conn)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create repositories: %w", err)
	}
	c.ScoredTaskRepo = repos.ScoredTasks
	c.AuditRepo = repos.Audit
	c.OutboxRepo = repos.Outbox
	c.UnitOfWork = repos.UnitOfWork

	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initEngine(); err != nil {
		c.Close()
		return nil, err
	}

	c.initHandlers()
	return c, nil
}

func runMigrations(ctx context.Context, conn database.Connection) error {
	switch conn.Driver() {
	case database.DriverSQLite:
		db, err := database.SQLiteDB(conn)
		if err != nil {
			return err
		}
		return migrations.RunSQLiteMigrations(ctx, db)
	case database.DriverPostgres:
		pool, err := database.PostgresPool(conn)
		if err != nil {
			return err
		}
		return migrations.RunPostgresMigrations(ctx, pool)
	default:
		return fmt.Errorf("unsupported driver: %s", conn.Driver())
	}
}

// initCache uses Redis when configured. In development an unreachable Redis
// falls back to the in-process cache.
func (c *Container) initCache(ctx context.Context) error {
	ttl := c.Config.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	if c.Config.RedisURL == "" {
		c.ResultCache = cache.NewMemoryResultCache(ttl)
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, using in-memory result cache", "error", err)
		c.ResultCache = cache.NewMemoryResultCache(ttl)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-memory result cache", "error", err)
		c.ResultCache = cache.NewMemoryResultCache(ttl)
		return nil
	}

	c.RedisClient = client
	c.ResultCache = cache.NewRedisResultCache(client, ttl)
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) initEngine() error {
	scoring, err := services.LoadScoringConfig(c.Config.ScoringConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load scoring config: %w", err)
	}

	opts := []services.EngineOption{
		services.WithLogger(c.Logger),
		services.WithMetrics(c.Metrics),
	}

	if c.Config.RefinerEnabled() {
		refinerCfg := refiner.DefaultConfig()
		refinerCfg.Endpoint = c.Config.RefinerURL
		refinerCfg.APIKey = c.Config.RefinerAPIKey
		refinerCfg.ClientID = c.Config.RefinerClientID
		refinerCfg.ClientSecret = c.Config.RefinerClientSecret
		refinerCfg.TokenURL = c.Config.RefinerTokenURL
		refinerCfg.Scopes = c.Config.RefinerScopes
		if c.Config.RefinerTimeout > 0 {
			refinerCfg.Timeout = c.Config.RefinerTimeout
		}

		r, err := refiner.NewHTTPRefiner(refinerCfg, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to create refiner: %w", err)
		}
		c.Refiner = r
		opts = append(opts, services.WithRefiner(r))
		c.Logger.Info("refiner enabled", "endpoint", c.Config.RefinerURL)
	}

	engine, err := services.NewEngine(scoring, opts...)
	if err != nil {
		return fmt.Errorf("failed to create scoring engine: %w", err)
	}
	c.Engine = engine
	return nil
}

func (c *Container) initHandlers() {
	// Create command handlers
	c.ScoreTaskHandler = commands.NewScoreTaskHandler(
		c.Engine, c.ScoredTaskRepo, c.OutboxRepo, c.UnitOfWork, c.ResultCache, c.AuditRepo, c.Logger,
	)
	c.BatchScoreHandler = commands.NewBatchScoreHandler(c.ScoreTaskHandler, c.Config.RecalcConcurrency, c.Logger)
	c.RecalculateHandler = commands.NewRecalculatePrioritiesHandler(
		c.ScoredTaskRepo, c.ScoreTaskHandler, c.Config.RecalcConcurrency, c.Metrics, c.Logger,
	)
	c.LockTaskHandler = commands.NewLockTaskHandler(c.ScoredTaskRepo, c.OutboxRepo, c.UnitOfWork, c.ResultCache)
	c.UnlockTaskHandler = commands.NewUnlockTaskHandler(c.ScoredTaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.OverrideTaskHandler = commands.NewOverrideTaskHandler(c.ScoredTaskRepo, c.OutboxRepo, c.UnitOfWork, c.ResultCache)

	// Create query handlers
	c.GetPriorityResultHandler = queries.NewGetPriorityResultHandler(c.ScoredTaskRepo, c.ResultCache, c.Logger)
	c.GetScoredTaskHandler = queries.NewGetScoredTaskHandler(c.ScoredTaskRepo)
	c.ListScoredTasksHandler = queries.NewListScoredTasksHandler(c.ScoredTaskRepo)
	c.ListPrivacyAuditHandler = queries.NewListPrivacyAuditHandler(c.AuditRepo)

	c.IntakeSubscriber = subscribers.NewIntakeSubscriber(c.ScoreTaskHandler, c.RecalculateHandler, c.Metrics, c.Logger)
}

// Close releases all resources.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("failed to close Redis client", "error", err)
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("failed to close database", "error", err)
		}
	}
}
