package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/fieldops/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres schema migrations",
	Long:  "Apply all pending Postgres migrations and print the resulting schema version.",
	RunE:  runMigrate,
}

var (
	migrateDatabaseURL string
	migrateDir         string
)

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "db-url", "", "Database URL (defaults to DATABASE_URL)")
	migrateCmd.Flags().StringVar(&migrateDir, "dir", "", "Migrations directory (defaults to MIGRATIONS_DIR or ./migrations)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	url := firstNonEmpty(migrateDatabaseURL, os.Getenv("DATABASE_URL"))
	if url == "" {
		return fmt.Errorf("database URL is required (set DATABASE_URL or use --db-url)")
	}
	dir := firstNonEmpty(migrateDir, os.Getenv("MIGRATIONS_DIR"), "migrations")

	if err := store.RunMigrations(url, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	version, dirty, err := store.MigrationVersion(url, dir)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
