package app

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-schema-sync/database"
	"github.com/stacklok/toolhive-schema-sync/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Manage the schema of the shared record store. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd())
	return cmd
}

// setupMigration loads the configuration and creates a migrator for the
// configured store. It returns a description of the target for prompts.
func setupMigration(cmd *cobra.Command) (database.Migrator, string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}

	switch cfg.GetStoreType() {
	case config.StoreTypePostgres:
		connString, err := cfg.Database.GetConnectionString()
		if err != nil {
			return nil, "", fmt.Errorf("failed to build connection string: %w", err)
		}
		m, err := database.NewPostgresMigrator(connString)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create migrator: %w", err)
		}
		target := fmt.Sprintf("postgres %s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
		return m, target, nil

	case config.StoreTypeSQLite:
		m, err := database.NewSQLiteMigrator(cfg.Store.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create migrator: %w", err)
		}
		return m, "sqlite " + cfg.Store.Path, nil

	default:
		return nil, "", fmt.Errorf("store type %q has no schema to migrate", cfg.GetStoreType())
	}
}

// confirm asks for confirmation unless --yes was given
func confirm(cmd *cobra.Command, question string) (bool, error) {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return false, err
	}
	if yes {
		return true, nil
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s Continue? (yes/no): ", question); err != nil {
		return false, err
	}
	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y", nil
}

func logVersion(m database.Migrator) {
	version, dirty, err := m.Version()
	switch {
	case err != nil:
		slog.Warn("Unable to get migration version", "error", err)
	case dirty:
		slog.Warn("Database is in a dirty state", "version", version)
	default:
		slog.Info("Current migration version", "version", version)
	}
}
