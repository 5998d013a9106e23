package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wizardbeard/tpg/internal/storage"
)

var runsFlags struct {
	storeKind string
	dbPath    string
	limit     int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted run records",
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsFlags.storeKind, "store", "memory", "run history store: memory|sqlite")
	f.StringVar(&runsFlags.dbPath, "db-path", "tpg.db", "sqlite database path")
	f.IntVar(&runsFlags.limit, "limit", 20, "max runs to list (0 for all)")
}

func openStore(ctx context.Context, kind, path string) (storage.Store, error) {
	store, err := storage.NewStore(kind, path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	store, err := openStore(ctx, runsFlags.storeKind, runsFlags.dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = storage.CloseIfSupported(store) }()

	runs, err := store.ListRuns(ctx, runsFlags.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "run_id=%s seed=%d generation=%d\n", r.ID, r.Seed, r.Generation)
	}
	return nil
}
