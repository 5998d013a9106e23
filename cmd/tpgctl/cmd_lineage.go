package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wizardbeard/tpg/internal/storage"
)

var lineageFlags struct {
	runID     string
	storeKind string
	dbPath    string
}

var lineageCmd = &cobra.Command{
	Use:   "lineage",
	Short: "Show which operator produced each root, and from which parent",
	RunE:  runLineage,
}

func init() {
	f := lineageCmd.Flags()
	f.StringVar(&lineageFlags.runID, "run-id", "", "run id (required)")
	f.StringVar(&lineageFlags.storeKind, "store", "memory", "run history store: memory|sqlite")
	f.StringVar(&lineageFlags.dbPath, "db-path", "tpg.db", "sqlite database path")
	_ = lineageCmd.MarkFlagRequired("run-id")
}

func runLineage(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	store, err := openStore(ctx, lineageFlags.storeKind, lineageFlags.dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = storage.CloseIfSupported(store) }()

	lineage, ok, err := store.GetLineage(ctx, lineageFlags.runID)
	if err != nil {
		return err
	}
	if !ok || len(lineage) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no lineage records")
		return nil
	}
	for _, rec := range lineage {
		fmt.Fprintf(cmd.OutOrStdout(), "generation=%d child_root=T%d parent_root=T%d operator=%s\n",
			rec.Generation, rec.ChildRootID, rec.ParentRootID, rec.Operator)
	}
	return nil
}
