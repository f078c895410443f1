// Package main is the entrypoint for the FieldOps server and tooling.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "fieldops",
	Short:         "FieldOps mobile mechanic job and diagnostics service",
	Long:          "FieldOps tracks on-site repair jobs from booking to customer sign-off and builds diagnostic context for technicians.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
