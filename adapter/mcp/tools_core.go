package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
)

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Check database and cache connectivity").
		Handler(func(ctx context.Context, input struct{}) (map[string]any, error) {
			return healthStatus(ctx, app)
		})

	srv.Tool("cli.version").
		Description("Get CLI version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{
				"version":   cli.Version,
				"commit":    cli.Commit,
				"buildDate": cli.BuildDate,
			}, nil
		})

	return nil
}

func healthStatus(ctx context.Context, app *cli.App) (map[string]any, error) {
	if app == nil {
		return nil, errors.New("app not initialized")
	}
	if app.Health == nil {
		return map[string]any{"status": string(observability.HealthStatusHealthy)}, nil
	}

	overall := app.Health.GetOverallHealth(ctx)
	checks := make(map[string]string, len(overall.Checks))
	for name, check := range overall.Checks {
		checks[name] = string(check.Status)
	}
	return map[string]any{
		"status": string(overall.Status),
		"checks": checks,
	}, nil
}
