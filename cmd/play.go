package cmd

import (
	"github.com/spf13/cobra"
)

// playCmd is an explicit alias for the default action; `clio` and
// `clio play` both open the app.
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the tutor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}
