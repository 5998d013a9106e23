package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/wizardbeard/tpg/internal/model"
)

func TestRunRunsReportsEmptyStore(t *testing.T) {
	runsFlags.storeKind = "memory"
	runsFlags.limit = 20
	var buf bytes.Buffer
	cmd := runsCmd
	cmd.SetOut(&buf)

	if err := runRuns(cmd, nil); err != nil {
		t.Fatalf("run runs: %v", err)
	}
	if !strings.Contains(buf.String(), "no runs found") {
		t.Fatalf("expected empty-store message, got=%q", buf.String())
	}
}

func TestRunLineageReportsMissingRunID(t *testing.T) {
	lineageFlags.storeKind = "memory"
	lineageFlags.runID = "does-not-exist"
	var buf bytes.Buffer
	cmd := lineageCmd
	cmd.SetOut(&buf)

	if err := runLineage(cmd, nil); err != nil {
		t.Fatalf("run lineage: %v", err)
	}
	if !strings.Contains(buf.String(), "no lineage records") {
		t.Fatalf("expected no-lineage message, got=%q", buf.String())
	}
}

func TestOpenStoreRoundTripsGenerationDiagnostics(t *testing.T) {
	store, err := openStore(context.Background(), "memory", "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	diagnostics := []model.GenerationDiagnostics{
		{RunID: "run-x", Generation: 0, BestBid: 1.25, MeanBid: 0.75, TeamCount: 2, ProgramCount: 6, OrphanCount: 0},
	}
	if err := store.SaveGenerationDiagnostics(context.Background(), "run-x", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}

	got, ok, err := store.GetGenerationDiagnostics(context.Background(), "run-x")
	if err != nil || !ok || len(got) != 1 {
		t.Fatalf("expected diagnostics retrievable from the store used by the test, ok=%v err=%v got=%v", ok, err, got)
	}
}
