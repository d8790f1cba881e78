package cli

import (
	"github.com/spf13/cobra"

	"marketscholar/internal/app"
)

var (
	ingestSnapshotsPath string
	ingestCallsPath     string
	ingestArticlesPath  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load snapshots, analyst calls and articles from CSV files",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.IngestOptions{
			SnapshotsPath: ingestSnapshotsPath,
			CallsPath:     ingestCallsPath,
			ArticlesPath:  ingestArticlesPath,
		}
		return getApp().Ingest(cmd.Context(), opts)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSnapshotsPath, "snapshots", "", "Path to snapshot CSV")
	ingestCmd.Flags().StringVar(&ingestCallsPath, "calls", "", "Path to analyst call CSV")
	ingestCmd.Flags().StringVar(&ingestArticlesPath, "articles", "", "Path to article CSV")
}
