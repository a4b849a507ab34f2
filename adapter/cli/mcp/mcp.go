package mcp

import "github.com/spf13/cobra"

// Cmd exposes the scoring engine to MCP clients.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server",
}

func init() {
	Cmd.AddCommand(serveCmd)
}
