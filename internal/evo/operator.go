package evo

import (
	"context"

	"github.com/wizardbeard/tpg/internal/model"
)

// Operator produces a new root team from a parent root, per spec §4.7.
type Operator interface {
	Name() string
	Apply(ctx context.Context, parent model.TeamID) (model.TeamID, *MutationSummary, error)
}

// MutationSummary records which sub-steps of an operator actually fired,
// for harness lineage recording and for the deterministic-seed test
// scenarios in spec §8 (3, 4, 5) that assert on exactly what changed.
type MutationSummary struct {
	Operator   string
	ParentRoot model.TeamID
	ChildRoot  model.TeamID

	RemovedProgram model.ProgramID
	DidRemove      bool

	AddedProgram model.ProgramID
	DidAdd       bool

	// GenomeReplacements maps each old program ID replaced via a genome
	// mutation to the ID of the fresh mutated copy.
	GenomeReplacements map[model.ProgramID]model.ProgramID

	// ActionReplacements maps each old program ID replaced via an
	// action reassignment to the ID of the fresh copy.
	ActionReplacements map[model.ProgramID]model.ProgramID

	// ActionMapOp is "add", "change", "remove", or "" if the
	// action-map sub-operator roll didn't fire or found no eligible
	// target.
	ActionMapOp string
}
