package cli

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database and cache connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		out := cmd.OutOrStdout()
		if app.Health == nil {
			fmt.Fprintln(out, "ok")
			return nil
		}

		overall := app.Health.GetOverallHealth(cmd.Context())
		names := make([]string, 0, len(overall.Checks))
		for name := range overall.Checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			check := overall.Checks[name]
			line := fmt.Sprintf("%-10s %s", name, check.Status)
			if check.Message != "" {
				line += " (" + check.Message + ")"
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintf(out, "overall    %s\n", overall.Status)

		if overall.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("one or more dependencies are unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
