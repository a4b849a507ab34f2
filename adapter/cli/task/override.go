package task

import (
	"fmt"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/spf13/cobra"
)

var (
	overridePriority float64
	overrideStatus   string
	overrideReason   string
)

var overrideCmd = &cobra.Command{
	Use:   "override <task-id>",
	Short: "Record a manual priority or status",
	Long: `Record a manual priority and/or status for a task. The task is locked
so later scoring keeps the human decision.

Examples:
  prioritiai task override T-42 --priority 9.5 --reason "board request"
  prioritiai task override T-42 --status done`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.OverrideTaskHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		c := commands.OverrideTaskCommand{
			TaskID: args[0],
			Status: overrideStatus,
			Reason: overrideReason,
			Actor:  app.Actor,
		}
		if cmd.Flags().Changed("priority") {
			p := overridePriority
			c.ManualPriority = &p
		}
		if c.ManualPriority == nil && c.Status == "" {
			return fmt.Errorf("provide --priority and/or --status")
		}

		if err := app.OverrideTaskHandler.Handle(cmd.Context(), c); err != nil {
			return fmt.Errorf("failed to override task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Overrode task %s\n", args[0])
		return nil
	},
}

func init() {
	overrideCmd.Flags().Float64VarP(&overridePriority, "priority", "p", 0, "manual priority score")
	overrideCmd.Flags().StringVarP(&overrideStatus, "status", "s", "", "task status")
	overrideCmd.Flags().StringVarP(&overrideReason, "reason", "r", "", "why the override was made")
}
