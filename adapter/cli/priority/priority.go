package priority

import "github.com/spf13/cobra"

// Cmd groups the scoring commands.
var Cmd = &cobra.Command{
	Use:     "priority",
	Aliases: []string{"prio"},
	Short:   "Score tasks and inspect priority results",
	Long: `Score a single task or a batch from JSON, recalculate stored scores as
deadlines approach, and inspect results and the privacy audit trail.`,
}

func init() {
	Cmd.AddCommand(scoreCmd, batchCmd, recalcCmd, statusCmd, auditCmd)
}
