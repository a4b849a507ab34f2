package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, stamped with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Go        string `json:"go"`
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := buildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate, Go: runtime.Version()}
		out := cmd.OutOrStdout()
		if versionJSON {
			_ = json.NewEncoder(out).Encode(info)
			return
		}
		fmt.Fprintf(out, "prioritiai %s\n  commit: %s\n  built:  %s\n  go:     %s\n",
			info.Version, info.Commit, info.BuildDate, info.Go)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(versionCmd)
}
