package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketscholar/internal/app"
)

var (
	showLimit    int
	showAnalysts bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent decay metrics or analyst scorecards",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Limit:    showLimit,
			Analysts: showAnalysts,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of rows to display")
	showCmd.Flags().BoolVar(&showAnalysts, "analysts", false, "Show analyst scorecards instead of decay metrics")
}
