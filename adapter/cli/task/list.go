package task

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/spf13/cobra"
)

var (
	filterCategory string
	filterUrgency  string
	filterRole     string
	filterLocked   string
	limit          int
	offset         int
	listJSON       bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scored tasks",
	Long: `List scored tasks, highest effective priority first.

Filter Options:
  --category    Filter by category (security, support, ...)
  --urgency     Filter by urgency level (critical, high, medium, low)
  --role        Filter by requester role
  --locked      Filter by lock state (true, false)

Examples:
  prioritiai task list                      # All tasks
  prioritiai task list --urgency critical   # Only critical tasks
  prioritiai task list --locked true        # Locked tasks
  prioritiai task list --limit 5            # Top 5 tasks`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListScoredTasksHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		tasks, err := app.ListScoredTasksHandler.Handle(cmd.Context(), queries.ListScoredTasksQuery{
			Category: filterCategory,
			Urgency:  filterUrgency,
			Role:     filterRole,
			Locked:   filterLocked,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return cli.WriteJSON(out, tasks)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		fmt.Fprintf(out, "Tasks (%d):\n", len(tasks))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, t := range tasks {
			marker := ""
			if t.Locked {
				marker = " [LOCKED]"
			}
			fmt.Fprintf(out, "%-8s %6.2f  %s%s\n", t.Result.UrgencyLevel, t.EffectivePriority, t.Title, marker)
			fmt.Fprintf(out, "   ID: %s  Status: %s  Due: %s\n", t.TaskID, t.Status, t.DueAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&filterCategory, "category", "", "filter by category")
	listCmd.Flags().StringVar(&filterUrgency, "urgency", "", "filter by urgency level")
	listCmd.Flags().StringVar(&filterRole, "role", "", "filter by requester role")
	listCmd.Flags().StringVar(&filterLocked, "locked", "", "filter by lock state (true, false)")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum tasks to show")
	listCmd.Flags().IntVar(&offset, "offset", 0, "tasks to skip")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the tasks as JSON")
}
