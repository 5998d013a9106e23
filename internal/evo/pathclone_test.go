package evo

import (
	"context"
	"math/rand"
	"testing"

	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/model"
)

func buildChainGraph(t *testing.T, g *graph.Graph) (a, b, c model.TeamID) {
	t.Helper()
	pa, err := g.AddProgram([]byte("x0"), nil, false)
	if err != nil {
		t.Fatalf("add program a: %v", err)
	}
	teamA, err := g.AddTeam([]model.ProgramID{pa.ID}, nil)
	if err != nil {
		t.Fatalf("add team a: %v", err)
	}
	pb, err := g.AddProgram([]byte("x0"), nil, false)
	if err != nil {
		t.Fatalf("add program b: %v", err)
	}
	teamB, err := g.AddTeam([]model.ProgramID{pb.ID}, nil)
	if err != nil {
		t.Fatalf("add team b: %v", err)
	}
	pc, err := g.AddProgram([]byte("x0"), nil, false)
	if err != nil {
		t.Fatalf("add program c: %v", err)
	}
	teamC, err := g.AddTeam([]model.ProgramID{pc.ID}, nil)
	if err != nil {
		t.Fatalf("add team c: %v", err)
	}

	if err := g.SetTeamAction(teamA.ID, pa.ID, &teamB.ID); err != nil {
		t.Fatalf("link a->b: %v", err)
	}
	if err := g.SetTeamAction(teamB.ID, pb.ID, &teamC.ID); err != nil {
		t.Fatalf("link b->c: %v", err)
	}
	if err := g.AddRoot(teamA.ID); err != nil {
		t.Fatalf("add root: %v", err)
	}
	return teamA.ID, teamB.ID, teamC.ID
}

func TestPathCloneClonesEveryTeamOnPathAndRelinks(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := graph.New(rng, model.NewActionSet())
	root, _, _ := buildChainGraph(t, g)

	op := &PathCloneOperator{Graph: g, Rand: rng}

	newRoot, summary, err := op.Apply(context.Background(), root)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if summary.ParentRoot != root || summary.ChildRoot != newRoot {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	report := g.VerifyIntegrity()
	if !report.Consistent() {
		t.Fatalf("expected consistent graph after path-clone, got mismatches=%v", report.Mismatches)
	}
	if !g.IsRoot(newRoot) {
		t.Fatalf("expected new head of cloned path to be a root")
	}
}

func TestPathCloneLeavesOriginalPathUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := graph.New(rng, model.NewActionSet())
	root, teamB, teamC := buildChainGraph(t, g)

	rootTeamBefore, err := g.Team(root)
	if err != nil {
		t.Fatalf("team lookup: %v", err)
	}
	before := rootTeamBefore.CloneActionMap()

	op := &PathCloneOperator{Graph: g, Rand: rng}
	if _, _, err := op.Apply(context.Background(), root); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rootTeamAfter, err := g.Team(root)
	if err != nil {
		t.Fatalf("team lookup after apply: %v", err)
	}
	after := rootTeamAfter.CloneActionMap()
	if len(before) != len(after) {
		t.Fatalf("expected original root's action map to be untouched by path-clone")
	}
	for k, v := range before {
		if after[k] != v {
			t.Fatalf("expected original root's action map entry %s -> %s preserved, got %s", k, v, after[k])
		}
	}

	if _, err := g.Team(teamB); err != nil {
		t.Fatalf("expected original team B to still exist: %v", err)
	}
	if _, err := g.Team(teamC); err != nil {
		t.Fatalf("expected original team C to still exist: %v", err)
	}
}
