package priority

import (
	"fmt"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/spf13/cobra"
)

var recalcLimit int

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recalculate unlocked task priority scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		out := cmd.OutOrStdout()
		if app == nil || app.RecalculateHandler == nil {
			fmt.Fprintln(out, "Priority recalculation requires database connection.")
			return nil
		}
		if recalcLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		limit := recalcLimit
		if limit == 0 {
			limit = app.RecalcLimit()
		}

		ctx := cmd.Context()
		result, err := app.RecalculateHandler.Handle(ctx, commands.RecalculatePrioritiesCommand{
			Limit:         limit,
			Actor:         app.Actor,
			CorrelationID: observability.CorrelationIDFromContext(ctx),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Recalculated %d priority scores (avg %.2f)\n", result.UpdatedCount, result.AverageScore)
		fmt.Fprintf(out, "   scanned %d, locked %d, failed %d, escalations %d\n",
			result.Scanned, result.SkippedLocked, result.Failed, result.Escalations)
		return nil
	},
}

func init() {
	recalcCmd.Flags().IntVar(&recalcLimit, "limit", 0, "maximum tasks to scan (defaults to RECALC_LIMIT)")
}
