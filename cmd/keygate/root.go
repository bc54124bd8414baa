package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "keygate",
	Short: "Keygate - API key gatekeeper with daily quotas",
	Long: `Keygate is an API gatekeeper that sits in front of a protected service.

It provides:
  - API key authentication by SHA-256 fingerprint (raw keys are never stored)
  - Atomic per-key daily request quotas, race-free under concurrency
  - Fail-closed admission when the counter store is unavailable
  - Usage recording and per-client, per-endpoint reporting`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json")
}
