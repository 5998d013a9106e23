package tpg

import (
	"bytes"
	"context"
	"testing"

	"github.com/wizardbeard/tpg/internal/cache"
	"github.com/wizardbeard/tpg/internal/harnessconfig"
	"github.com/wizardbeard/tpg/internal/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(Options{
		Seed:      1,
		Actions:   []any{"left", "right"},
		CacheMode: cache.LRU,
		CacheSize: 100,
		StoreKind: "memory",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClientSeedTeamCreatesRoot(t *testing.T) {
	client := newTestClient(t)
	root, err := client.SeedTeam(context.Background(), 4)
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}
	if !client.Graph.IsRoot(root) {
		t.Fatalf("expected seeded team to be a root")
	}
	team, err := client.Graph.Team(root)
	if err != nil {
		t.Fatalf("team lookup: %v", err)
	}
	if len(team.Programs) != 4 {
		t.Fatalf("expected 4 programs, got=%d", len(team.Programs))
	}
}

func TestClientSeedTeamRejectsNonPositiveCount(t *testing.T) {
	client := newTestClient(t)
	if _, err := client.SeedTeam(context.Background(), 0); err == nil {
		t.Fatalf("expected error for zero program count")
	}
}

func TestClientRunEndToEnd(t *testing.T) {
	client := newTestClient(t)
	for i := 0; i < 4; i++ {
		if _, err := client.SeedTeam(context.Background(), 3); err != nil {
			t.Fatalf("seed team %d: %v", i, err)
		}
	}

	cfg := harnessconfig.Default()
	cfg.NumOffspringPerGen = 2
	cfg.Generations = 3
	cfg.K = 3
	cfg.EliteCount = 2
	cfg.Seed = 1

	summary, err := client.Run(context.Background(), RunRequest{
		Config: cfg,
		Inputs: [][]float64{{1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatalf("expected a non-empty run ID")
	}
	if len(summary.BestByGeneration) != cfg.Generations {
		t.Fatalf("expected %d generations of best-bid history, got=%d", cfg.Generations, len(summary.BestByGeneration))
	}

	stored, ok, err := client.Store.GetRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok || stored.Seed != cfg.Seed {
		t.Fatalf("expected run record persisted with matching seed, got=%+v ok=%v", stored, ok)
	}
	if stored.MutationConfig != (model.MutationConfigSnapshot{
		RemoveProgramRate:   cfg.Mutation.RemoveProgramRate,
		AddProgramRate:      cfg.Mutation.AddProgramRate,
		ProgramMutationRate: cfg.Mutation.ProgramMutationRate,
		ProgramActionRate:   cfg.Mutation.ProgramActionRate,
		ActionMapRate:       cfg.Mutation.ActionMapRate,
	}) {
		t.Fatalf("expected persisted mutation config to match run config, got=%+v", stored.MutationConfig)
	}
	if len(stored.EliteRootsByGeneration) != cfg.Generations {
		t.Fatalf("expected elite roots recorded for every generation, got=%d want=%d", len(stored.EliteRootsByGeneration), cfg.Generations)
	}
	for _, gen := range stored.EliteRootsByGeneration {
		if len(gen.RootIDs) == 0 {
			t.Fatalf("expected generation %d to record at least one elite root", gen.Generation)
		}
	}
}

func TestClientRunRejectsInvalidConfig(t *testing.T) {
	client := newTestClient(t)
	cfg := harnessconfig.Default()
	cfg.Selector = "bogus"
	if _, err := client.Run(context.Background(), RunRequest{Config: cfg}); err == nil {
		t.Fatalf("expected invalid config to be rejected")
	}
}

func TestClientVerifyAndCleanup(t *testing.T) {
	client := newTestClient(t)
	root, err := client.SeedTeam(context.Background(), 2)
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}

	report := client.Verify()
	if !report.Consistent() {
		t.Fatalf("expected consistent graph, got=%v", report.Mismatches)
	}

	client.Graph.RemoveRoot(root)
	before, after, err := client.Cleanup()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if before.TotalTeams != 1 {
		t.Fatalf("expected 1 team before cleanup, got=%d", before.TotalTeams)
	}
	if after.TotalTeams != 0 {
		t.Fatalf("expected orphaned team collected, got=%d", after.TotalTeams)
	}
}

func TestClientRenderProducesDOT(t *testing.T) {
	client := newTestClient(t)
	root, err := client.SeedTeam(context.Background(), 2)
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}

	var buf bytes.Buffer
	if err := client.Render(&buf, root); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected non-empty DOT output")
	}
}

func TestParseCacheModeMapsKnownStrings(t *testing.T) {
	cases := map[string]cache.Mode{
		"off":       cache.Off,
		"per_input": cache.PerInput,
		"lru":       cache.LRU,
		"bogus":     cache.Off,
	}
	for input, want := range cases {
		if got := ParseCacheMode(input); got != want {
			t.Fatalf("ParseCacheMode(%q) = %v, want %v", input, got, want)
		}
	}
}
