// Package mcp maps the prioritization commands and queries onto MCP tools,
// resources and prompts.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/prioritiai/adapter/cli"
)

// ToolDependencies carries the wired handlers shared with the CLI.
type ToolDependencies struct {
	App *cli.App
}

// RegisterCLITools registers the core and priority tool sets.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	switch {
	case srv == nil:
		return errors.New("server is required")
	case deps.App == nil:
		return errors.New("app is required")
	}
	for _, register := range []func(*mcp.Server, ToolDependencies) error{
		registerCoreTools,
		registerPriorityTools,
	} {
		if err := register(srv, deps); err != nil {
			return err
		}
	}
	return nil
}
