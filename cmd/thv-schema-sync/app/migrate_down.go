package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-schema-sync/database"
)

func newMigrateDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert database migrations",
		Long: `Revert migrations of the store named in the configuration.
WARNING: reverting the first migration drops every published record.

Examples:
  # Revert the latest migration
  thv-schema-sync migrate down --config config.yaml --num-steps 1 --yes`,
		RunE: runMigrateDown,
	}
	cmd.Flags().UintP("num-steps", "n", 1, "Number of migrations to revert")
	return cmd
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	steps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return err
	}
	if steps == 0 {
		return fmt.Errorf("--num-steps must be at least 1")
	}

	m, target, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.CloseMigrator(m); err != nil {
			slog.Error("Failed to close migrator", "error", err)
		}
	}()

	ok, err := confirm(cmd, fmt.Sprintf("About to revert %d migration(s) on %s. This may delete data.", steps, target))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled by user")
		return nil
	}

	slog.Info("Reverting database migrations", "target", target, "steps", steps)
	if err := database.MigrateDown(m, int(steps)); err != nil {
		return err
	}
	logVersion(m)
	return nil
}
