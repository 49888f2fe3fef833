package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/A-Yoshitsugu/crossborder/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", appName, app.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
