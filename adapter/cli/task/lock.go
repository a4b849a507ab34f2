package task

import (
	"fmt"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/spf13/cobra"
)

var lockReason string

var lockCmd = &cobra.Command{
	Use:   "lock <task-id>",
	Short: "Lock a task so re-scoring keeps its current result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.LockTaskHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		if err := app.LockTaskHandler.Handle(cmd.Context(), commands.LockTaskCommand{
			TaskID: args[0],
			Reason: lockReason,
			Actor:  app.Actor,
		}); err != nil {
			return fmt.Errorf("failed to lock task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Locked task %s\n", args[0])
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <task-id>",
	Short: "Unlock a task so it is scored again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UnlockTaskHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		if err := app.UnlockTaskHandler.Handle(cmd.Context(), commands.UnlockTaskCommand{
			TaskID: args[0],
			Actor:  app.Actor,
		}); err != nil {
			return fmt.Errorf("failed to unlock task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Unlocked task %s\n", args[0])
		return nil
	},
}

func init() {
	lockCmd.Flags().StringVarP(&lockReason, "reason", "r", "", "why the task is locked")
}
