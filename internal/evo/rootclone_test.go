package evo

import (
	"context"
	"math/rand"
	"testing"

	"github.com/wizardbeard/tpg/internal/backend"
	"github.com/wizardbeard/tpg/internal/cache"
	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/model"
)

func seedRootGraph(t *testing.T, g *graph.Graph, be *backend.ArithmeticBackend, programCount int) model.TeamID {
	t.Helper()
	ids := make([]model.ProgramID, 0, programCount)
	for i := 0; i < programCount; i++ {
		genome, err := be.RandomGenome(context.Background())
		if err != nil {
			t.Fatalf("random genome: %v", err)
		}
		p, err := g.AddProgram(genome, nil, false)
		if err != nil {
			t.Fatalf("add program: %v", err)
		}
		ids = append(ids, p.ID)
	}
	team, err := g.AddTeam(ids, nil)
	if err != nil {
		t.Fatalf("add team: %v", err)
	}
	if err := g.AddRoot(team.ID); err != nil {
		t.Fatalf("add root: %v", err)
	}
	return team.ID
}

func TestRootCloneApplyLeavesParentUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	be := backend.NewArithmeticBackend(rng, 3)
	g := graph.New(rng, model.NewActionSet("left", "right"))
	parent := seedRootGraph(t, g, be, 4)

	parentBefore, err := g.Team(parent)
	if err != nil {
		t.Fatalf("team lookup: %v", err)
	}
	parentProgramsBefore := append([]model.ProgramID(nil), parentBefore.Programs...)

	cfg := MutationConfig{RemoveProgramRate: 1, AddProgramRate: 1, ProgramMutationRate: 1, ProgramActionRate: 1, ActionMapRate: 1}
	op := NewRootCloneOperator(g, be, cache.New(cache.Off, 0), rng, cfg)

	child, summary, err := op.Apply(context.Background(), parent)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if child == parent {
		t.Fatalf("expected a distinct child root")
	}
	if summary.ParentRoot != parent || summary.ChildRoot != child {
		t.Fatalf("unexpected summary linkage: %+v", summary)
	}

	parentAfter, err := g.Team(parent)
	if err != nil {
		t.Fatalf("team lookup after apply: %v", err)
	}
	if len(parentAfter.Programs) != len(parentProgramsBefore) {
		t.Fatalf("expected parent program count unchanged, before=%d after=%d", len(parentProgramsBefore), len(parentAfter.Programs))
	}
	for i, pid := range parentProgramsBefore {
		if parentAfter.Programs[i] != pid {
			t.Fatalf("expected parent program list unchanged at index %d: before=%s after=%s", i, pid, parentAfter.Programs[i])
		}
	}

	report := g.VerifyIntegrity()
	if !report.Consistent() {
		t.Fatalf("expected graph consistent after root-clone apply, got mismatches=%v", report.Mismatches)
	}
}

func TestRootCloneApplyWithZeroRatesStillProducesValidClone(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	be := backend.NewArithmeticBackend(rng, 3)
	g := graph.New(rng, model.NewActionSet("left", "right"))
	parent := seedRootGraph(t, g, be, 4)

	op := NewRootCloneOperator(g, be, cache.New(cache.Off, 0), rng, MutationConfig{})

	child, summary, err := op.Apply(context.Background(), parent)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if summary.DidRemove || summary.DidAdd {
		t.Fatalf("expected zero-rate config to fire no probabilistic sub-steps, got=%+v", summary)
	}
	childTeam, err := g.Team(child)
	if err != nil {
		t.Fatalf("team lookup: %v", err)
	}
	parentTeam, _ := g.Team(parent)
	if len(childTeam.Programs) != len(parentTeam.Programs) {
		t.Fatalf("expected unchanged clone to mirror parent's program count")
	}
}

// TestRootCloneApplyIsDeterministicForSameSeed guards against candidate
// pools built from unordered map iteration (Graph.Programs, Graph.Teams,
// Team.ActionMap): with several eligible programs and teams to choose
// from, two identically-seeded runs over identically-built graphs must
// pick the exact same candidates every time.
func TestRootCloneApplyIsDeterministicForSameSeed(t *testing.T) {
	build := func() (*graph.Graph, *backend.ArithmeticBackend, model.TeamID) {
		g := graph.New(rand.New(rand.NewSource(11)), model.NewActionSet("left", "right", "up"))
		be := backend.NewArithmeticBackend(rand.New(rand.NewSource(11)), 3)
		var roots []model.TeamID
		for i := 0; i < 3; i++ {
			roots = append(roots, seedRootGraph(t, g, be, 4))
		}
		return g, be, roots[0]
	}

	cfg := MutationConfig{RemoveProgramRate: 1, AddProgramRate: 1, ProgramMutationRate: 1, ProgramActionRate: 1, ActionMapRate: 1}

	run := func() (model.TeamID, *MutationSummary) {
		g, be, parent := build()
		op := NewRootCloneOperator(g, be, cache.New(cache.Off, 0), rand.New(rand.NewSource(555)), cfg)
		child, summary, err := op.Apply(context.Background(), parent)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		return child, summary
	}

	child1, summary1 := run()
	child2, summary2 := run()

	if child1 != child2 {
		t.Fatalf("expected identical child root across identically-seeded runs, got %s vs %s", child1, child2)
	}
	if summary1.RemovedProgram != summary2.RemovedProgram || summary1.DidRemove != summary2.DidRemove {
		t.Fatalf("expected identical removed program, got %+v vs %+v", summary1, summary2)
	}
	if summary1.AddedProgram != summary2.AddedProgram || summary1.DidAdd != summary2.DidAdd {
		t.Fatalf("expected identical added program, got %+v vs %+v", summary1, summary2)
	}
	if summary1.ActionMapOp != summary2.ActionMapOp {
		t.Fatalf("expected identical action-map op, got %q vs %q", summary1.ActionMapOp, summary2.ActionMapOp)
	}
	if len(summary1.GenomeReplacements) != len(summary2.GenomeReplacements) {
		t.Fatalf("expected identical genome replacement count, got %d vs %d", len(summary1.GenomeReplacements), len(summary2.GenomeReplacements))
	}
	for original, replaced := range summary1.GenomeReplacements {
		if summary2.GenomeReplacements[original] != replaced {
			t.Fatalf("expected identical genome replacement for %s, got %s vs %s", original, replaced, summary2.GenomeReplacements[original])
		}
	}
	for original, replaced := range summary1.ActionReplacements {
		if summary2.ActionReplacements[original] != replaced {
			t.Fatalf("expected identical action replacement for %s, got %s vs %s", original, replaced, summary2.ActionReplacements[original])
		}
	}
}

func TestRootCloneRandomizedStressStaysConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	be := backend.NewArithmeticBackend(rng, 3)
	g := graph.New(rng, model.NewActionSet("left", "right", "up"))

	var roots []model.TeamID
	for i := 0; i < 3; i++ {
		roots = append(roots, seedRootGraph(t, g, be, 4))
	}

	cfg := DefaultMutationConfig()
	op := NewRootCloneOperator(g, be, cache.New(cache.LRU, 100), rng, cfg)

	for i := 0; i < 30; i++ {
		parent := roots[rng.Intn(len(roots))]
		child, _, err := op.Apply(context.Background(), parent)
		if err != nil {
			t.Fatalf("iteration %d: apply: %v", i, err)
		}
		roots = append(roots, child)

		report := g.VerifyIntegrity()
		if !report.Consistent() {
			t.Fatalf("iteration %d: graph inconsistent after root-clone: %v", i, report.Mismatches)
		}
	}
}
