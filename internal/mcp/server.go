package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	mcplocal "github.com/felixgeelhaar/prioritiai/adapter/mcp"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
)

const serverName = "prioritiai-mcp"

// NewServer registers the scoring tools, resources and prompts on a fresh MCP
// server. Only tool registration is fatal.
func NewServer(cliApp *cli.App, logger *slog.Logger) (*mcpgo.Server, error) {
	if cliApp == nil {
		return nil, errors.New("CLI app is required")
	}
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:         serverName,
		Version:      cli.Version,
		Capabilities: mcpgo.Capabilities{Tools: true, Resources: true, Prompts: true},
	})

	deps := mcplocal.ToolDependencies{App: cliApp}
	if err := mcplocal.RegisterCLITools(srv, deps); err != nil {
		return nil, err
	}
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("mcp resources unavailable", "error", err)
	}
	if err := mcplocal.RegisterPrompts(srv, deps); err != nil {
		logger.Warn("mcp prompts unavailable", "error", err)
	}
	return srv, nil
}

// middlewareStack is the default mcp-go stack, fronted by bearer auth when a
// token is configured.
func middlewareStack(cfg *config.Config, logger *slog.Logger) []middleware.Middleware {
	log := slogAdapter{logger}
	stack := middleware.DefaultStack(log)
	if cfg.MCPAuthToken == "" {
		logger.Warn("MCP auth token not set; requests will be unauthenticated")
		return stack
	}
	auth := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
		cfg.MCPAuthToken: {ID: "mcp", Name: "mcp"},
	}))
	return append([]middleware.Middleware{middleware.Auth(auth, middleware.WithAuthLogger(log))}, stack...)
}

// Serve runs the MCP HTTP transport on cfg.MCPAddr until ctx is canceled.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	srv, err := NewServer(cliApp, logger)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(middlewareStack(cfg, logger)...))
}

// slogAdapter satisfies the mcp-go middleware logger.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Debug(msg string, fields ...middleware.Field) {
	a.l.Debug(msg, fieldsToArgs(fields)...)
}
func (a slogAdapter) Info(msg string, fields ...middleware.Field) {
	a.l.Info(msg, fieldsToArgs(fields)...)
}
func (a slogAdapter) Warn(msg string, fields ...middleware.Field) {
	a.l.Warn(msg, fieldsToArgs(fields)...)
}
func (a slogAdapter) Error(msg string, fields ...middleware.Field) {
	a.l.Error(msg, fieldsToArgs(fields)...)
}

func fieldsToArgs(fields []middleware.Field) []any {
	args := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}
