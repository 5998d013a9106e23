// Package tpg is the public facade composing the graph, evaluation,
// cache, mutation, and harness packages for external callers, mirroring
// the teacher's pkg/protogonos.Client/Options/RunRequest/RunSummary
// shape one level up from a single neuroevolution run.
package tpg

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/wizardbeard/tpg/internal/backend"
	"github.com/wizardbeard/tpg/internal/cache"
	"github.com/wizardbeard/tpg/internal/eval"
	"github.com/wizardbeard/tpg/internal/evo"
	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/harness"
	"github.com/wizardbeard/tpg/internal/harnessconfig"
	"github.com/wizardbeard/tpg/internal/model"
	"github.com/wizardbeard/tpg/internal/render"
	"github.com/wizardbeard/tpg/internal/storage"
)

// Options configures a new Client.
type Options struct {
	Seed       int64
	Actions    []any
	CacheMode  cache.Mode
	CacheSize  int
	StoreKind  string
	SQLitePath string
	Backend    backend.ProgramBackend
}

// Client owns a Graph and its supporting collaborators (backend, cache,
// run-history store) for one program of work.
type Client struct {
	Graph     *graph.Graph
	Backend   backend.ProgramBackend
	Cache     cache.Cache
	Evaluator *eval.Evaluator
	Store     storage.Store

	rand *rand.Rand
}

// NewClient wires a fresh, empty graph and its collaborators together.
func NewClient(opts Options) (*Client, error) {
	rng := rand.New(rand.NewSource(opts.Seed))

	be := opts.Backend
	if be == nil {
		be = backend.NewArithmeticBackend(rand.New(rand.NewSource(opts.Seed)), 3)
	}

	actions := model.NewActionSet(opts.Actions...)
	g := graph.New(rand.New(rand.NewSource(opts.Seed)), actions)

	c := cache.New(opts.CacheMode, opts.CacheSize)
	evaluator := eval.NewEvaluator(be, c)

	store, err := storage.NewStore(opts.StoreKind, opts.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("tpg: new client: %w", err)
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("tpg: init store: %w", err)
	}

	return &Client{Graph: g, Backend: be, Cache: c, Evaluator: evaluator, Store: store, rand: rng}, nil
}

// SeedTeam creates programCount fresh random-genome programs, groups
// them into a new leaf team with no action map, and declares it a root
// (spec §4.1). It returns the new root's ID.
func (c *Client) SeedTeam(ctx context.Context, programCount int) (model.TeamID, error) {
	if programCount <= 0 {
		return 0, fmt.Errorf("tpg: seed team: programCount must be positive")
	}
	ids := make([]model.ProgramID, 0, programCount)
	for i := 0; i < programCount; i++ {
		genome, err := c.Backend.RandomGenome(ctx)
		if err != nil {
			return 0, fmt.Errorf("tpg: seed team: random genome: %w", err)
		}
		program, err := c.Graph.AddProgram(genome, nil, false)
		if err != nil {
			return 0, fmt.Errorf("tpg: seed team: add program: %w", err)
		}
		ids = append(ids, program.ID)
	}
	team, err := c.Graph.AddTeam(ids, nil)
	if err != nil {
		return 0, fmt.Errorf("tpg: seed team: add team: %w", err)
	}
	if err := c.Graph.AddRoot(team.ID); err != nil {
		return 0, fmt.Errorf("tpg: seed team: add root: %w", err)
	}
	return team.ID, nil
}

// RunRequest configures one call to Run.
type RunRequest struct {
	Config harnessconfig.HarnessConfig
	Inputs [][]float64
}

// RunSummary is the outcome of a harness run.
type RunSummary struct {
	RunID            string
	BestByGeneration []float64
	FinalBestBid     float64
}

// Run drives the reference evolutionary harness (spec §4.7) over the
// client's graph.
func (c *Client) Run(ctx context.Context, req RunRequest) (*RunSummary, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, fmt.Errorf("tpg: run: %w", err)
	}

	op := evo.NewRootCloneOperator(c.Graph, c.Backend, c.Cache, c.rand, req.Config.Mutation)

	var selector evo.Selector
	switch req.Config.Selector {
	case "tournament":
		selector = evo.TournamentSelector{}
	default:
		selector = evo.EliteSelector{}
	}

	h := harness.New(c.Graph, c.Evaluator, c.Cache, op, selector, req.Config)
	h.Store = c.Store

	result, err := h.Run(ctx, req.Inputs)
	if err != nil {
		return nil, err
	}

	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion},
		ID:              result.RunID,
		Seed:            req.Config.Seed,
		Generation:      len(result.Diagnostics),
		MutationConfig: model.MutationConfigSnapshot{
			RemoveProgramRate:   req.Config.Mutation.RemoveProgramRate,
			AddProgramRate:      req.Config.Mutation.AddProgramRate,
			ProgramMutationRate: req.Config.Mutation.ProgramMutationRate,
			ProgramActionRate:   req.Config.Mutation.ProgramActionRate,
			ActionMapRate:       req.Config.Mutation.ActionMapRate,
		},
		EliteRootsByGeneration: result.EliteRootsByGeneration,
	}
	if err := c.Store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("tpg: save run record: %w", err)
	}

	return &RunSummary{RunID: result.RunID, BestByGeneration: result.BestByGeneration, FinalBestBid: result.FinalBestBid}, nil
}

// Verify runs the integrity verifier over the client's graph without
// mutating it.
func (c *Client) Verify() *graph.Report {
	return c.Graph.VerifyIntegrity()
}

// Cleanup runs garbage collection (spec §4.6), forgetting the cache
// entries of every program it removes.
func (c *Client) Cleanup() (before, after *graph.Report, err error) {
	before, after, removed, err := c.Graph.Cleanup()
	for _, pid := range removed {
		c.Cache.Forget(pid)
	}
	return before, after, err
}

// Render writes a DOT visualization of root's reachable subgraph.
func (c *Client) Render(w io.Writer, root model.TeamID) error {
	return render.WriteDOT(w, c.Graph, root)
}

// Evaluate runs a full graph evaluation from root on input.
func (c *Client) Evaluate(ctx context.Context, root model.TeamID, input []float64) (*eval.GraphResult, error) {
	return c.Evaluator.EvaluateGraph(ctx, c.Graph, root, input)
}

// ParseCacheMode maps a harnessconfig.HarnessConfig.CacheMode string onto
// a cache.Mode, defaulting unrecognized values to cache.Off.
func ParseCacheMode(s string) cache.Mode {
	switch s {
	case "per_input":
		return cache.PerInput
	case "lru":
		return cache.LRU
	default:
		return cache.Off
	}
}
