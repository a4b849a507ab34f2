package mcp

import (
	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container, actor string) *cli.App {
	cliApp := cli.NewApp(
		container.ScoreTaskHandler,
		container.BatchScoreHandler,
		container.RecalculateHandler,
		container.LockTaskHandler,
		container.UnlockTaskHandler,
		container.OverrideTaskHandler,
		container.GetPriorityResultHandler,
		container.GetScoredTaskHandler,
		container.ListScoredTasksHandler,
		container.ListPrivacyAuditHandler,
	)

	cliApp.SetConfig(container.Config)
	cliApp.SetHealth(container.Health)
	if container.Metrics != nil {
		cliApp.SetMetricsHandler(container.Metrics.Handler())
	}
	cliApp.SetActor(actor)

	return cliApp
}
