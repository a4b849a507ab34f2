package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestServe_RequiresDependencies(t *testing.T) {
	ctx := context.Background()

	err := Serve(ctx, nil, &cli.App{}, nil)
	assert.EqualError(t, err, "config is required")

	err = Serve(ctx, &config.Config{}, nil, nil)
	assert.EqualError(t, err, "CLI app is required")
}

func TestFieldsToArgs(t *testing.T) {
	args := fieldsToArgs([]middleware.Field{
		{Key: "tool", Value: "priority.score"},
		{Key: "duration_ms", Value: 12},
	})
	assert.Equal(t, []any{"tool", "priority.score", "duration_ms", 12}, args)
}

func TestMiddlewareStack_AddsAuthWithToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	open := middlewareStack(&config.Config{}, logger)
	guarded := middlewareStack(&config.Config{MCPAuthToken: "secret"}, logger)

	assert.Len(t, guarded, len(open)+1)
}

func TestNewServer_RequiresApp(t *testing.T) {
	_, err := NewServer(nil, slog.Default())
	assert.EqualError(t, err, "CLI app is required")
}
