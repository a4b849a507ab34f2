package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	cliMcp "github.com/felixgeelhaar/prioritiai/adapter/cli/mcp"
	"github.com/felixgeelhaar/prioritiai/adapter/cli/priority"
	"github.com/felixgeelhaar/prioritiai/adapter/cli/task"
	"github.com/felixgeelhaar/prioritiai/internal/app"
	mcpinternal "github.com/felixgeelhaar/prioritiai/internal/mcp"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		// In development without .env, use defaults
		cfg = &config.Config{AppEnv: "development", LocalMode: true, DatabaseDriver: "sqlite"}
	}

	logger := app.NewLogger(cfg, "prioritiai", cli.Version, os.Stderr)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands that need storage report it themselves.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(mcpinternal.NewCLIApp(container, cli.DefaultActor))
	}

	cli.AddCommand(priority.Cmd)
	cli.AddCommand(task.Cmd)
	cli.AddCommand(cliMcp.Cmd)

	cli.Execute(ctx)
}
