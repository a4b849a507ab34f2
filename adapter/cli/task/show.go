package task

import (
	"fmt"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a scored task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetScoredTaskHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		t, err := app.GetScoredTaskHandler.Handle(cmd.Context(), queries.GetScoredTaskQuery{TaskID: args[0]})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showJSON {
			return cli.WriteJSON(out, t)
		}

		fmt.Fprintf(out, "%s\n", t.Title)
		fmt.Fprintf(out, "   Category: %s  Requester: %s  Status: %s\n", t.Category, t.RequesterRole, t.Status)
		fmt.Fprintf(out, "   Scored %d time(s), last %s\n", t.ScoreCount, t.UpdatedAt.Format("2006-01-02 15:04"))
		if t.Locked {
			fmt.Fprintf(out, "   Locked by %s: %s\n", t.LockedBy, t.LockReason)
		}
		if t.ManualPriority != nil {
			fmt.Fprintf(out, "   Manual priority: %.2f\n", *t.ManualPriority)
		}
		cli.PrintResult(out, t.Result)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the task as JSON")
}
