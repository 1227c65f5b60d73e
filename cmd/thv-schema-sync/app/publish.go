package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	syncapp "github.com/stacklok/toolhive-schema-sync/internal/app"
	pkgsync "github.com/stacklok/toolhive-schema-sync/internal/sync"
)

// recordSummary is the printed outcome of one record publication
type recordSummary struct {
	Location       string `json:"location"`
	Classification string `json:"classification,omitempty"`
	ChainID        string `json:"chainId,omitempty"`
	Error          string `json:"error,omitempty"`
}

// publishSummary is printed by the publish command
type publishSummary struct {
	Generation   uint64        `json:"generation"`
	Phase        string        `json:"phase"`
	Library      recordSummary `json:"library"`
	Capabilities recordSummary `json:"capabilities"`
}

func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the schema model once and exit",
		Long: `Read the model file named in the configuration, publish the module library
and the capabilities records, print a summary and exit. The command fails when
either record could not be published.`,
		RunE: runPublish,
	}
}

func runPublish(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// one-shot: nothing consumes file events
	cfg.Source.Watch = false

	app, err := syncapp.NewSyncApp(ctx, syncapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("Failed to close application", "error", err)
		}
	}()

	report, publishErr := app.PublishOnce(ctx)
	if report == nil {
		return publishErr
	}

	output, err := json.MarshalIndent(summarize(report), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format summary: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(output)); err != nil {
		return err
	}
	return publishErr
}

func summarize(report *pkgsync.Report) publishSummary {
	return publishSummary{
		Generation:   uint64(report.Generation),
		Phase:        string(report.Phase),
		Library:      summarizeRecord(report.Library),
		Capabilities: summarizeRecord(report.Capabilities),
	}
}

func summarizeRecord(rec pkgsync.RecordReport) recordSummary {
	summary := recordSummary{Location: string(rec.Location)}
	if rec.Result != nil {
		summary.Classification = rec.Result.Classification.String()
		summary.ChainID = rec.Result.ChainID
	}
	if rec.Err != nil {
		summary.Error = rec.Err.Error()
	}
	return summary
}
