package priority

import (
	"fmt"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show the current priority result for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetPriorityResultHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		status, err := app.GetPriorityResultHandler.Handle(cmd.Context(), queries.GetPriorityResultQuery{RequestID: args[0]})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if statusJSON {
			return cli.WriteJSON(out, status)
		}
		cli.PrintResult(out, status.Result)
		fmt.Fprintf(out, "   Effective priority: %.2f\n", status.EffectivePriority)
		if status.Locked {
			fmt.Fprintln(out, "   Locked")
		}
		if status.FromCache {
			fmt.Fprintln(out, "   (cached)")
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the status as JSON")
}
