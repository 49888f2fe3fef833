package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName = "crossborder"
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "crossborder matches foreign demand to a domestic catalog and ranks arbitrage margins",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}
