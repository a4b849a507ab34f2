package priority

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/spf13/cobra"
)

var (
	batchFile string
	batchJSON bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a JSON list of tasks",
	Long: `Score every task in a JSON array. A task that fails validation is
reported and does not stop the others.

Example:
  prioritiai priority batch --file backlog.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BatchScoreHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}
		if batchFile == "" {
			return fmt.Errorf("--file is required")
		}

		data, err := readInputFile(cmd, batchFile)
		if err != nil {
			return err
		}
		inputs, err := decodeInputs(data)
		if err != nil {
			return err
		}
		if len(inputs) > commands.MaxBatchSize {
			return fmt.Errorf("batch has %d tasks; the limit is %d", len(inputs), commands.MaxBatchSize)
		}
		now := time.Now()
		for i := range inputs {
			inputs[i] = withDefaults(inputs[i], now)
		}

		ctx := cmd.Context()
		result, err := app.BatchScoreHandler.Handle(ctx, commands.BatchScoreCommand{
			Inputs:        inputs,
			Actor:         app.Actor,
			CorrelationID: observability.CorrelationIDFromContext(ctx),
		})
		if err != nil {
			return fmt.Errorf("failed to score batch: %w", err)
		}

		out := cmd.OutOrStdout()
		if batchJSON {
			return cli.WriteJSON(out, result)
		}
		for _, item := range result.Items {
			if item.Err != nil {
				fmt.Fprintf(out, "[%d] %s: error: %v\n", item.Index, item.TaskID, item.Err)
				continue
			}
			r := item.Result.Result
			fmt.Fprintf(out, "[%d] %s: %s (score %.2f)\n", item.Index, item.TaskID, r.UrgencyLevel, r.PriorityMetrics.FinalPriorityScore)
		}
		fmt.Fprintf(out, "Scored %d of %d tasks (%d failed)\n", result.Succeeded, len(result.Items), result.Failed)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "JSON file with a list of tasks (- for stdin)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the results as JSON")
}
