package task

import "github.com/spf13/cobra"

// Cmd groups the human-control commands over stored scores.
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect, lock and override scored tasks",
	Long: `Locked tasks keep their score through recalculation until unlocked.
An override replaces the computed urgency and records who made the call.`,
}

func init() {
	Cmd.AddCommand(listCmd, showCmd, lockCmd, unlockCmd, overrideCmd)
}
