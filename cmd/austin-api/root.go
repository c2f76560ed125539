package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "austin-api",
	Short: "Austin web server",
	Long:  `The Austin web layer: error views, locale handling, CORS and request statistics.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./config.yaml or ./config/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
}
