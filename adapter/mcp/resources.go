package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
)

const resourceListLimit = 100

// RegisterResources registers MCP resources that expose scoring data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("prioritiai://tasks").
		Name("Scored Tasks").
		Description("Scored tasks, highest effective priority first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListScoredTasksHandler == nil {
				return nil, fmt.Errorf("task listing requires database connection")
			}
			tasks, err := app.ListScoredTasksHandler.Handle(ctx, queries.ListScoredTasksQuery{Limit: resourceListLimit})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("prioritiai://tasks/critical").
		Name("Critical Tasks").
		Description("Tasks currently scored CRITICAL").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListScoredTasksHandler == nil {
				return nil, fmt.Errorf("task listing requires database connection")
			}
			tasks, err := app.ListScoredTasksHandler.Handle(ctx, queries.ListScoredTasksQuery{
				Urgency: "critical",
				Limit:   resourceListLimit,
			})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("prioritiai://tasks/locked").
		Name("Locked Tasks").
		Description("Tasks whose priority is held by a human decision").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListScoredTasksHandler == nil {
				return nil, fmt.Errorf("task listing requires database connection")
			}
			tasks, err := app.ListScoredTasksHandler.Handle(ctx, queries.ListScoredTasksQuery{
				Locked: "true",
				Limit:  resourceListLimit,
			})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("prioritiai://privacy-audit").
		Name("Privacy Audit").
		Description("Recent sensitive-data detections").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListPrivacyAuditHandler == nil {
				return nil, fmt.Errorf("audit listing requires database connection")
			}
			entries, err := app.ListPrivacyAuditHandler.Handle(ctx, queries.ListPrivacyAuditQuery{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, entries)
		})

	srv.Resource("prioritiai://system/health").
		Name("System Health").
		Description("Database and cache connectivity").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			status, err := healthStatus(ctx, app)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, status)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
