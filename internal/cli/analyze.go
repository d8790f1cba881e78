package cli

import (
	"github.com/spf13/cobra"

	"marketscholar/internal/app"
)

var analyzeSnapshotsPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute decay metrics for a snapshot CSV without touching the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.AnalyzeOptions{
			SnapshotsPath: analyzeSnapshotsPath,
		}
		return getApp().Analyze(cmd.Context(), opts)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSnapshotsPath, "snapshots", "", "Path to snapshot CSV for one narrative")
}
