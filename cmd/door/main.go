package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"godoor/internal"
	"godoor/internal/config"
)

func main() {
	// .env is optional for the CLI
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "door",
		Short:         "Desirability of Outcome Ranking analysis for two-arm trials",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newRankCmd(),
		newSimulateCmd(),
		newHierarchyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment once per command so flags can default to it
func loadConfig() (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)), nil
}
