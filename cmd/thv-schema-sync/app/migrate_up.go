package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-schema-sync/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending migrations to the store named in the configuration.
Run this before starting the service against a new PostgreSQL database.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	m, target, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.CloseMigrator(m); err != nil {
			slog.Error("Failed to close migrator", "error", err)
		}
	}()

	ok, err := confirm(cmd, fmt.Sprintf("About to apply migrations to %s.", target))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled by user")
		return nil
	}

	slog.Info("Applying database migrations", "target", target)
	if err := database.MigrateUp(m); err != nil {
		return err
	}
	logVersion(m)
	return nil
}
