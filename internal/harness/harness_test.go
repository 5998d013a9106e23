package harness

import (
	"context"
	"math/rand"
	"testing"

	"github.com/wizardbeard/tpg/internal/backend"
	"github.com/wizardbeard/tpg/internal/cache"
	"github.com/wizardbeard/tpg/internal/eval"
	"github.com/wizardbeard/tpg/internal/evo"
	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/harnessconfig"
	"github.com/wizardbeard/tpg/internal/model"
	"github.com/wizardbeard/tpg/internal/storage"
)

func seedInitialTeams(t *testing.T, g *graph.Graph, be *backend.ArithmeticBackend, teams, programsPerTeam int) {
	t.Helper()
	for i := 0; i < teams; i++ {
		ids := make([]model.ProgramID, 0, programsPerTeam)
		for j := 0; j < programsPerTeam; j++ {
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
	}
}

func newTestHarness(t *testing.T, cfg harnessconfig.HarnessConfig) (*Harness, *graph.Graph) {
	t.Helper()
	rng := rand.New(rand.NewSource(cfg.Seed))
	be := backend.NewArithmeticBackend(rng, 3)
	g := graph.New(rng, model.NewActionSet("left", "right"))
	seedInitialTeams(t, g, be, cfg.NumInitialTeams, cfg.ProgramsPerInitialTeam)

	c := cache.New(cache.LRU, 100)
	evaluator := eval.NewEvaluator(be, c)
	op := evo.NewRootCloneOperator(g, be, c, rng, cfg.Mutation)

	h := New(g, evaluator, c, op, evo.EliteSelector{}, cfg)
	h.Store = storage.NewMemoryStore()
	if err := h.Store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return h, g
}

func testConfig() harnessconfig.HarnessConfig {
	cfg := harnessconfig.Default()
	cfg.NumInitialTeams = 4
	cfg.ProgramsPerInitialTeam = 3
	cfg.Generations = 5
	cfg.NumOffspringPerGen = 3
	cfg.K = 3
	cfg.EliteCount = 2
	cfg.Seed = 7
	return cfg
}

func TestHarnessRunProducesDiagnosticsPerGeneration(t *testing.T) {
	cfg := testConfig()
	h, g := newTestHarness(t, cfg)

	inputs := [][]float64{{1, 2, 3}, {-1, 0, 4}}
	result, err := h.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Diagnostics) != cfg.Generations {
		t.Fatalf("expected %d generation diagnostics, got=%d", cfg.Generations, len(result.Diagnostics))
	}
	if len(result.BestByGeneration) != cfg.Generations {
		t.Fatalf("expected %d best-bid entries, got=%d", cfg.Generations, len(result.BestByGeneration))
	}

	report := g.VerifyIntegrity()
	if !report.Consistent() {
		t.Fatalf("expected graph consistent after full run, got mismatches=%v", report.Mismatches)
	}
	if len(g.RootTeams()) > cfg.K {
		t.Fatalf("expected at most K=%d roots retained, got=%d", cfg.K, len(g.RootTeams()))
	}
}

func TestHarnessRunPersistsDiagnosticsAndLineageToStore(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 2
	h, _ := newTestHarness(t, cfg)

	inputs := [][]float64{{1, 2, 3}}
	result, err := h.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	stored, ok, err := h.Store.GetGenerationDiagnostics(context.Background(), h.RunID)
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok || len(stored) != len(result.Diagnostics) {
		t.Fatalf("expected persisted diagnostics to match run result, got=%v ok=%v", stored, ok)
	}

	lineage, ok, err := h.Store.GetLineage(context.Background(), h.RunID)
	if err != nil {
		t.Fatalf("get lineage: %v", err)
	}
	if !ok || len(lineage) == 0 {
		t.Fatalf("expected non-empty lineage persisted")
	}
}

func TestHarnessRunStopsEarlyWhenCallbackRequests(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 10
	h, _ := newTestHarness(t, cfg)

	calls := 0
	h.EarlyStopCallback = func() bool {
		calls++
		return calls >= 2
	}

	result, err := h.Run(context.Background(), [][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Diagnostics) != 2 {
		t.Fatalf("expected early stop after 2 generations, got=%d", len(result.Diagnostics))
	}
}

func TestHarnessRunInvokesEpochCallbacks(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 3
	h, _ := newTestHarness(t, cfg)

	var seen []int
	h.EpochCallbacks = append(h.EpochCallbacks, func(_ context.Context, diag model.GenerationDiagnostics) {
		seen = append(seen, diag.Generation)
	})

	if _, err := h.Run(context.Background(), [][]float64{{1, 2, 3}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(seen) != cfg.Generations {
		t.Fatalf("expected one epoch callback per generation, got=%v", seen)
	}
}
