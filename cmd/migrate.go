package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matrixise/geb-ledger/internal/config"
	"github.com/matrixise/geb-ledger/internal/logger"
	"github.com/matrixise/geb-ledger/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Long:  `Run, rollback, or check the status of the ledger schema migrations.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: migration("Migrations applied successfully", func(ctx context.Context, dsn string) error {
		return storage.RunMigrations(ctx, dsn)
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback the last migration",
	RunE: migration("Migration rolled back successfully", func(ctx context.Context, dsn string) error {
		return storage.MigrateDown(ctx, dsn)
	}),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: migration("", func(ctx context.Context, dsn string) error {
		return storage.MigrateStatus(ctx, dsn)
	}),
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// migration wraps a goose operation into a cobra RunE.
func migration(done string, op func(ctx context.Context, dsn string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger.Setup(logLevel)

		dsn, err := config.DatabaseURL()
		if err != nil {
			return err
		}

		if err := op(cmd.Context(), dsn); err != nil {
			slog.Error("Migration command failed", "command", cmd.Name(), "error", err)
			return err
		}

		if done != "" {
			version, err := storage.SchemaVersion(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			slog.Info(done, "version", version)
		}
		return nil
	}
}
