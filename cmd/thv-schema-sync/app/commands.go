// Package app provides the command line interface of the schema sync service.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-schema-sync/internal/config"
	"github.com/stacklok/toolhive-schema-sync/internal/versions"
)

// NewRootCmd creates the root command and all subcommands
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "thv-schema-sync",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "ToolHive schema sync service",
		Long: `ToolHive schema sync service keeps the module library and the RESTCONF
capabilities records of the shared operational store in line with the schema
model loaded by this node.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "",
		"Path to configuration file (YAML format, may also be set with THV_SCHEMA_SYNC_CONFIG)")

	rootCmd.AddCommand(
		newServeCmd(),
		newPublishCmd(),
		newInspectCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration named by --config or THV_SCHEMA_SYNC_CONFIG
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlag("config", cmd.Flags().Lookup("config")); err != nil {
		return nil, fmt.Errorf("failed to bind config flag: %w", err)
	}

	path := v.GetString("config")
	if path == "" {
		return nil, fmt.Errorf("a configuration file is required: use --config or %s_CONFIG", config.EnvPrefix)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Debug("Loaded configuration", "path", path, "store", cfg.GetStoreType(), "node", cfg.GetNodeName())
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "thv-schema-sync %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}
