package cmd

import (
	"github.com/spf13/cobra"
)

const VERSION = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print multisend version",
	Run: func(cmd *cobra.Command, args []string) {
		appUI.Info("multisend version: %s", VERSION)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
