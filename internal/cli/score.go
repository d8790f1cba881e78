package cli

import (
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run one scoring batch and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Score(cmd.Context())
	},
}
