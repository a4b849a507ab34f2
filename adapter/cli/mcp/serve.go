package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/app"
	mcpinternal "github.com/felixgeelhaar/prioritiai/internal/mcp"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := app.NewLogger(cfg, "prioritiai-mcp", cli.Version, cmd.ErrOrStderr())

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		cliApp := mcpinternal.NewCLIApp(container, "mcp")
		cli.SetLogger(logger)
		err = mcpinternal.Serve(ctx, cfg, cliApp, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
