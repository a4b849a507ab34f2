package cli

import (
	"net/http"

	"github.com/felixgeelhaar/prioritiai/adapter/api"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
)

// DefaultActor is recorded on events raised from the command line.
const DefaultActor = "cli"

// App holds the CLI application dependencies.
type App struct {
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

	Config         *config.Config
	Health         *observability.HealthRegistry
	MetricsHandler http.Handler

	// Actor is recorded as the initiator of lock, override and scoring events.
	Actor string
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	scoreTaskHandler *commands.ScoreTaskHandler,
	batchScoreHandler *commands.BatchScoreHandler,
	recalculateHandler *commands.RecalculatePrioritiesHandler,
	lockTaskHandler *commands.LockTaskHandler,
	unlockTaskHandler *commands.UnlockTaskHandler,
	overrideTaskHandler *commands.OverrideTaskHandler,
	getPriorityResultHandler *queries.GetPriorityResultHandler,
	getScoredTaskHandler *queries.GetScoredTaskHandler,
	listScoredTasksHandler *queries.ListScoredTasksHandler,
	listPrivacyAuditHandler *queries.ListPrivacyAuditHandler,
) *App {
	return &App{
		ScoreTaskHandler:         scoreTaskHandler,
		BatchScoreHandler:        batchScoreHandler,
		RecalculateHandler:       recalculateHandler,
		LockTaskHandler:          lockTaskHandler,
		UnlockTaskHandler:        unlockTaskHandler,
		OverrideTaskHandler:      overrideTaskHandler,
		GetPriorityResultHandler: getPriorityResultHandler,
		GetScoredTaskHandler:     getScoredTaskHandler,
		ListScoredTasksHandler:   listScoredTasksHandler,
		ListPrivacyAuditHandler:  listPrivacyAuditHandler,
		Actor:                    DefaultActor,
	}
}

// SetConfig updates the configuration.
func (a *App) SetConfig(cfg *config.Config) {
	a.Config = cfg
}

// SetHealth updates the health registry.
func (a *App) SetHealth(health *observability.HealthRegistry) {
	a.Health = health
}

// SetMetricsHandler updates the handler that serves /metrics.
func (a *App) SetMetricsHandler(h http.Handler) {
	a.MetricsHandler = h
}

// SetActor updates the recorded actor.
func (a *App) SetActor(actor string) {
	if actor != "" {
		a.Actor = actor
	}
}

// RecalcLimit returns the configured cap for a recalculation run.
func (a *App) RecalcLimit() int {
	if a.Config == nil {
		return 0
	}
	return a.Config.RecalcLimit
}

// APIHandler builds the HTTP prioritization handler over the same handlers.
func (a *App) APIHandler() *api.PrioritizationHandler {
	return api.NewPrioritizationHandler(api.PrioritizationHandlerConfig{
		Score:       a.ScoreTaskHandler,
		Batch:       a.BatchScoreHandler,
		Recalculate: a.RecalculateHandler,
		Lock:        a.LockTaskHandler,
		Unlock:      a.UnlockTaskHandler,
		Override:    a.OverrideTaskHandler,
		Status:      a.GetPriorityResultHandler,
		History:     a.ListScoredTasksHandler,
		Audit:       a.ListPrivacyAuditHandler,
		Logger:      Logger(),
		RecalcLimit: a.RecalcLimit(),
	})
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
