package cli

import (
	"github.com/spf13/cobra"

	"marketscholar/internal/app"
)

var evaluateDays int

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Mature pending analyst calls and record verdicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.EvaluateOptions{
			Days: evaluateDays,
		}
		return getApp().Evaluate(cmd.Context(), opts)
	},
}

func init() {
	evaluateCmd.Flags().IntVar(&evaluateDays, "days", 0, "Maturation window in days (defaults to config)")
}
