package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common triage workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("triage_queue").
		Description("Walk through the scored queue and decide what to work on, lock, or escalate.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Queue Triage",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me triage the work queue. Please:

1. Read the critical tasks from the prioritiai://tasks/critical resource
2. Read the full queue from the prioritiai://tasks resource
3. Check which tasks are held by a human decision in prioritiai://tasks/locked

For each critical task, summarize the reasoning and the suggested SLA.
Point out tasks whose escalation is recommended but are not yet being handled.
If a locked task looks stale, suggest unlocking it with priority.unlock so it is scored again.
If priorities look outdated, run priority.recalc first.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("privacy_review").
		Description("Review tasks where sensitive data was detected and refinement was skipped.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Privacy Review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Review recent sensitive-data detections from the prioritiai://privacy-audit resource.

For each entry, look up the task with priority.status and list:
- the detected categories
- whether the task still needs a human to redact or move the data

Do not repeat any sensitive values in your answer.`,
						},
					},
				},
			}, nil
		})

	return nil
}
