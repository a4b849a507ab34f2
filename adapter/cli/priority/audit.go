package priority

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent sensitive-data detections",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListPrivacyAuditHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		entries, err := app.ListPrivacyAuditHandler.Handle(cmd.Context(), queries.ListPrivacyAuditQuery{Limit: auditLimit})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No sensitive data detected.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %s  %s\n", e.DetectedAt.Format("2006-01-02 15:04:05"), e.RequestID, strings.Join(e.Categories, ","))
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "maximum entries to show")
}
