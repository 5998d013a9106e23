package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wizardbeard/tpg/internal/storage"
)

var diagnosticsFlags struct {
	runID     string
	storeKind string
	dbPath    string
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Show per-generation bidding and graph-shape statistics for a run",
	RunE:  runDiagnostics,
}

func init() {
	f := diagnosticsCmd.Flags()
	f.StringVar(&diagnosticsFlags.runID, "run-id", "", "run id (required)")
	f.StringVar(&diagnosticsFlags.storeKind, "store", "memory", "run history store: memory|sqlite")
	f.StringVar(&diagnosticsFlags.dbPath, "db-path", "tpg.db", "sqlite database path")
	_ = diagnosticsCmd.MarkFlagRequired("run-id")
}

func runDiagnostics(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	store, err := openStore(ctx, diagnosticsFlags.storeKind, diagnosticsFlags.dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = storage.CloseIfSupported(store) }()

	diagnostics, ok, err := store.GetGenerationDiagnostics(ctx, diagnosticsFlags.runID)
	if err != nil {
		return err
	}
	if !ok || len(diagnostics) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no diagnostics")
		return nil
	}
	for _, d := range diagnostics {
		fmt.Fprintf(cmd.OutOrStdout(), "generation=%d best_bid=%.6f mean_bid=%.6f teams=%d programs=%d orphans=%d\n",
			d.Generation, d.BestBid, d.MeanBid, d.TeamCount, d.ProgramCount, d.OrphanCount)
	}
	return nil
}
