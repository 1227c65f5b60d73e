package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-schema-sync/internal/app/storage"
	"github.com/stacklok/toolhive-schema-sync/internal/config"
	"github.com/stacklok/toolhive-schema-sync/internal/datatree"
	"github.com/stacklok/toolhive-schema-sync/internal/inventory"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a record from the shared store",
		Long: `Print the payload of a published record. --query selects part of the payload
with a GJSON path.

Examples:
  # Print the module library record
  thv-schema-sync inspect --config config.yaml

  # Print the module-set-id of the library
  thv-schema-sync inspect --config config.yaml \
    --query 'ietf-yang-library:modules-state.module-set-id'

  # List the advertised capabilities
  thv-schema-sync inspect --config config.yaml \
    --kind ietf-restconf-monitoring:restconf-state \
    --query 'ietf-restconf-monitoring:restconf-state.capabilities.capability'`,
		RunE: runInspect,
	}
	cmd.Flags().String("kind", inventory.LibraryKind.String(), "Record kind, as module:name")
	cmd.Flags().String("query", "", "GJSON path selecting part of the payload")
	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.GetStoreType() == config.StoreTypeMemory {
		return fmt.Errorf("the memory store cannot be inspected from another process")
	}

	kindFlag, _ := cmd.Flags().GetString("kind")
	query, _ := cmd.Flags().GetString("query")

	module, name, ok := strings.Cut(kindFlag, ":")
	if !ok || module == "" || name == "" {
		return fmt.Errorf("kind must be of the form module:name, got %q", kindFlag)
	}

	st, err := storage.NewStore(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	loc := store.LocationOfKind(datatree.Kind{Module: module, Name: name})
	rec, err := st.Get(ctx, loc)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no record published at %s", loc)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", loc, err)
	}

	out, err := selectPayload(rec.Payload, query)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

// selectPayload returns the part of payload selected by a GJSON path, or the
// whole payload when query is empty. Scalars are printed without quotes.
func selectPayload(payload []byte, query string) (string, error) {
	if !gjson.ValidBytes(payload) {
		return "", fmt.Errorf("record payload is not valid JSON")
	}
	if query == "" {
		return string(payload), nil
	}

	result := gjson.GetBytes(payload, query)
	if !result.Exists() {
		return "", fmt.Errorf("query %q matched nothing", query)
	}
	if result.IsObject() || result.IsArray() {
		return result.Raw, nil
	}
	return result.String(), nil
}
