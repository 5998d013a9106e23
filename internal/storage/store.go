// Package storage persists harness run bookkeeping — run records,
// per-generation diagnostics, and mutation lineage — never the live
// graph itself (spec §1's Non-goals explicitly exclude graph
// persistence). Grounded on the teacher's internal/storage package:
// same Store interface shape, same MemoryStore defensive-copy
// discipline, same build-tag-gated SQLite backend.
package storage

import (
	"context"

	"github.com/wizardbeard/tpg/internal/model"
)

// Store defines transaction-like persistence operations for harness
// run history (spec §4.10).
type Store interface {
	Init(ctx context.Context) error

	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)

	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)

	SaveLineage(ctx context.Context, runID string, lineage []model.LineageRecord) error
	GetLineage(ctx context.Context, runID string) ([]model.LineageRecord, bool, error)
}
