package priority

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/spf13/cobra"
)

var (
	scoreFile        string
	scoreID          string
	scoreTitle       string
	scoreDescription string
	scoreCategory    string
	scoreRole        string
	scoreRequester   string
	scoreDeadline    string
	scoreMeeting     string
	scoreContext     string
	scoreTags        []string
	businessValue    float64
	riskLevel        float64
	effortHours      float64
	affectedUsers    int
	workaround       bool
	scoreJSON        bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [title]",
	Short: "Score a task",
	Long: `Score a task and store the result.

The task can be given with flags or as a JSON document with --file
(use "-" for stdin). Manual values such as --business-value always win
over the automatic estimate.

Examples:
  prioritiai priority score "Checkout returns 500" --description "Payments fail since deploy" --category support
  prioritiai priority score --file task.json --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ScoreTaskHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		input, err := scoreInputFromFlags(cmd, args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		result, err := app.ScoreTaskHandler.Handle(ctx, commands.ScoreTaskCommand{
			Input:         input,
			Actor:         app.Actor,
			CorrelationID: observability.CorrelationIDFromContext(ctx),
		})
		if err != nil {
			return fmt.Errorf("failed to score task: %w", err)
		}

		out := cmd.OutOrStdout()
		if scoreJSON {
			return cli.WriteJSON(out, result.Result)
		}
		if result.Locked {
			fmt.Fprintln(out, "Task is locked; showing the stored result.")
		}
		cli.PrintResult(out, result.Result)
		if result.EffectivePriority != result.Result.PriorityMetrics.FinalPriorityScore {
			fmt.Fprintf(out, "   Effective priority: %.2f\n", result.EffectivePriority)
		}
		return nil
	},
}

func scoreInputFromFlags(cmd *cobra.Command, args []string) (domain.TaskInput, error) {
	var input domain.TaskInput
	if scoreFile != "" {
		data, err := readInputFile(cmd, scoreFile)
		if err != nil {
			return input, err
		}
		inputs, err := decodeInputs(data)
		if err != nil {
			return input, err
		}
		if len(inputs) != 1 {
			return input, fmt.Errorf("expected one task, got %d; use 'priority batch' for lists", len(inputs))
		}
		input = inputs[0]
	}

	flags := cmd.Flags()
	if len(args) == 1 {
		input.Title = args[0]
	}
	if flags.Changed("title") {
		input.Title = scoreTitle
	}
	if flags.Changed("id") {
		input.ID = scoreID
	}
	if flags.Changed("description") {
		input.Description = scoreDescription
	}
	if flags.Changed("category") {
		input.Category = domain.ParseCategory(scoreCategory)
	}
	if flags.Changed("role") {
		input.RequesterRole = domain.ParseRole(scoreRole)
	}
	if flags.Changed("requester") {
		input.RequesterName = scoreRequester
	}
	if flags.Changed("context") {
		input.Context = scoreContext
	}
	if flags.Changed("tag") {
		input.Tags = scoreTags
	}

	deadline, err := parseTime("deadline", scoreDeadline)
	if err != nil {
		return input, err
	}
	if deadline != nil {
		input.Deadline = deadline
	}
	meeting, err := parseTime("meeting", scoreMeeting)
	if err != nil {
		return input, err
	}
	if meeting != nil {
		input.MeetingTime = meeting
	}

	if flags.Changed("business-value") {
		v := businessValue
		input.BusinessValue = &v
	}
	if flags.Changed("risk") {
		v := riskLevel
		input.RiskLevel = &v
	}
	if flags.Changed("effort") {
		v := effortHours
		input.EstimatedEffortHours = &v
	}
	if flags.Changed("affected-users") {
		v := affectedUsers
		input.AffectedUsersCount = &v
	}
	if flags.Changed("workaround") {
		v := workaround
		input.WorkaroundAvailable = &v
	}

	// A title alone is a valid request from the command line.
	if input.Description == "" {
		input.Description = input.Title
	}
	return withDefaults(input, time.Now()), nil
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreFile, "file", "f", "", "read the task as JSON from a file (- for stdin)")
	scoreCmd.Flags().StringVar(&scoreID, "id", "", "task ID (generated when empty)")
	scoreCmd.Flags().StringVarP(&scoreTitle, "title", "t", "", "task title")
	scoreCmd.Flags().StringVarP(&scoreDescription, "description", "d", "", "task description")
	scoreCmd.Flags().StringVar(&scoreCategory, "category", "", "category (security, infrastructure, support, development, ...)")
	scoreCmd.Flags().StringVar(&scoreRole, "role", "", "requester role (ceo, cto, manager, developer, ...)")
	scoreCmd.Flags().StringVar(&scoreRequester, "requester", "", "requester name")
	scoreCmd.Flags().StringVar(&scoreDeadline, "deadline", "", "deadline (RFC3339 or YYYY-MM-DD)")
	scoreCmd.Flags().StringVar(&scoreMeeting, "meeting", "", "related meeting time (RFC3339 or YYYY-MM-DD)")
	scoreCmd.Flags().StringVar(&scoreContext, "context", "", "additional context text")
	scoreCmd.Flags().StringSliceVar(&scoreTags, "tag", nil, "tag (repeatable)")
	scoreCmd.Flags().Float64Var(&businessValue, "business-value", 0, "manual business value (1-10)")
	scoreCmd.Flags().Float64Var(&riskLevel, "risk", 0, "manual risk level (1-10)")
	scoreCmd.Flags().Float64Var(&effortHours, "effort", 0, "manual effort estimate in hours")
	scoreCmd.Flags().IntVar(&affectedUsers, "affected-users", 0, "manual affected users count")
	scoreCmd.Flags().BoolVar(&workaround, "workaround", false, "a workaround is available")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the result as JSON")
}
