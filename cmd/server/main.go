package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "fitsymphony",
	Short:        "FitSymphony coaching backend",
	SilenceUsage: true,
	// serve is the default action
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to a JSON or YAML config file (empty for env only)")
	rootCmd.AddCommand(serveCmd, tokenCmd, tailAuditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
