package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "roundtable",
	Short: "Roundtable - multi-persona AI conversation engine",
	Long: `Roundtable orchestrates multi-persona AI conversations across multiple
LLM backends, normalizing their responses into one structured contract.

It provides:
  - Provider adapters for OpenAI, Anthropic, and Gemini
  - Mention-based turn routing between personas
  - Deterministic cost and cache-discount accounting
  - A snapshot cache with hit/miss metrics aggregation
  - An HTTP API for chat, cache control, and cache metrics`,
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
}
