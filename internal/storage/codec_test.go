package storage

import (
	"reflect"
	"testing"

	"github.com/wizardbeard/tpg/internal/model"
)

func TestEncodeDecodeRunRoundTrip(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
		Seed:            5,
		Generation:      2,
	}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, run) {
		t.Fatalf("expected round-tripped run to match original, got=%+v", got)
	}
}

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
	}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); err == nil {
		t.Fatalf("expected version mismatch error")
	}
}

func TestEncodeDecodeGenerationDiagnosticsRoundTrip(t *testing.T) {
	diagnostics := []model.GenerationDiagnostics{
		{RunID: "run-1", Generation: 0, BestBid: 1.5, MeanBid: 0.5, TeamCount: 3, ProgramCount: 9},
		{RunID: "run-1", Generation: 1, BestBid: 2.5, MeanBid: 1.5, TeamCount: 3, ProgramCount: 9},
	}
	data, err := EncodeGenerationDiagnostics(diagnostics)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeGenerationDiagnostics(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(diagnostics) || got[1].BestBid != 2.5 {
		t.Fatalf("unexpected round-tripped diagnostics: %+v", got)
	}
}

func TestEncodeDecodeLineageRoundTrip(t *testing.T) {
	records := []model.LineageRecord{
		{RunID: "run-1", Generation: 0, ChildRootID: 2, ParentRootID: 1, Operator: "root-clone"},
	}
	data, err := EncodeLineage(records)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeLineage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Operator != "root-clone" {
		t.Fatalf("unexpected round-tripped lineage: %+v", got)
	}
}
