// Package harness implements the reference evolutionary-loop harness
// sketched in spec §4.7: mutate a parent root, evaluate every current
// root, demote non-elite roots, garbage collect, and verify. It is
// explicitly not the focus of the specification (spec §1) but is given
// real shape here per SPEC_FULL.md §4.10/§11, grounded on the teacher's
// internal/platform.Polis orchestration.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/wizardbeard/tpg/internal/cache"
	"github.com/wizardbeard/tpg/internal/eval"
	"github.com/wizardbeard/tpg/internal/evo"
	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/harnessconfig"
	"github.com/wizardbeard/tpg/internal/model"
	"github.com/wizardbeard/tpg/internal/storage"
)

// EpochCallback runs after every generation, mirroring spec §6's
// "zero or more epoch_callback(context)".
type EpochCallback func(ctx context.Context, diagnostics model.GenerationDiagnostics)

// EarlyStopCallback is consulted between generations; returning true
// ends the run early (spec §5: "cooperative at the harness level only").
type EarlyStopCallback func() bool

// Harness orchestrates one evolutionary run over a shared Graph.
type Harness struct {
	Graph     *graph.Graph
	Evaluator *eval.Evaluator
	Cache     cache.Cache
	Operator  evo.Operator
	Selector  evo.Selector
	Config    harnessconfig.HarnessConfig
	Rand      *rand.Rand
	Store     storage.Store
	Logger    *slog.Logger

	EpochCallbacks    []EpochCallback
	EarlyStopCallback EarlyStopCallback

	RunID string
}

// New wires a Harness together, minting a fresh run ID.
func New(g *graph.Graph, evaluator *eval.Evaluator, c cache.Cache, op evo.Operator, sel evo.Selector, cfg harnessconfig.HarnessConfig) *Harness {
	return &Harness{
		Graph:     g,
		Evaluator: evaluator,
		Cache:     c,
		Operator:  op,
		Selector:  sel,
		Config:    cfg,
		Rand:      rand.New(rand.NewSource(cfg.Seed)),
		Logger:    slog.Default(),
		RunID:     uuid.NewString(),
	}
}

// RunResult summarizes one call to Run.
type RunResult struct {
	RunID                  string
	BestByGeneration       []float64
	FinalBestBid           float64
	Diagnostics            []model.GenerationDiagnostics
	Lineage                []model.LineageRecord
	EliteRootsByGeneration []model.EliteGeneration
}

// Run drives Generations rounds of: for each of NumOffspringPerGen
// offspring, pick a parent root via Selector and produce a new root via Operator,
// evaluate every current root against inputs, keep only the top K roots
// as roots, sweep the rest with GC, and verify. It stops early if
// EarlyStopCallback returns true between generations, or if the
// post-cleanup verifier reports residual mismatches (spec §7: terminal
// for the generational loop).
func (h *Harness) Run(ctx context.Context, inputs [][]float64) (*RunResult, error) {
	result := &RunResult{RunID: h.RunID}

	for gen := 0; gen < h.Config.Generations; gen++ {
		roots := h.Graph.RootTeams()
		if len(roots) == 0 {
			return result, fmt.Errorf("harness: no root teams to evolve from")
		}
		ranked, err := h.rankRoots(ctx, roots, inputs)
		if err != nil {
			return result, fmt.Errorf("harness: generation %d: %w", gen, err)
		}

		eliteCount := h.Config.EliteCount
		if eliteCount > len(ranked) {
			eliteCount = len(ranked)
		}

		for i := 0; i < h.Config.NumOffspringPerGen; i++ {
			parent, err := h.Selector.PickParent(h.Rand, ranked, eliteCount)
			if err != nil {
				return result, fmt.Errorf("harness: generation %d: select parent: %w", gen, err)
			}
			child, summary, err := h.Operator.Apply(ctx, parent)
			if err != nil {
				return result, fmt.Errorf("harness: generation %d: mutate: %w", gen, err)
			}
			result.Lineage = append(result.Lineage, model.LineageRecord{
				VersionedRecord: model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion},
				RunID:           h.RunID,
				Generation:      gen,
				ChildRootID:     uint64(child),
				ParentRootID:    uint64(summary.ParentRoot),
				Operator:        summary.Operator,
			})
		}

		roots = h.Graph.RootTeams()
		ranked, err = h.rankRoots(ctx, roots, inputs)
		if err != nil {
			return result, fmt.Errorf("harness: generation %d: %w", gen, err)
		}
		diag, eliteIDs := h.demoteNonElite(ranked, gen)
		result.EliteRootsByGeneration = append(result.EliteRootsByGeneration, model.EliteGeneration{
			Generation: gen,
			RootIDs:    eliteIDs,
		})

		before, after, removed, err := h.Graph.Cleanup()
		if err != nil {
			return result, fmt.Errorf("harness: generation %d: gc: %w", gen, err)
		}
		diag.OrphanCount = len(before.OrphanedTeams) + len(before.OrphanedPrograms)
		for _, pid := range removed {
			h.Cache.Forget(pid)
		}
		if !after.Consistent() {
			return result, fmt.Errorf("harness: generation %d: %w: %d residual mismatches", gen, graph.ErrVerificationFailed, len(after.Mismatches))
		}

		diag.TeamCount = after.TotalTeams
		diag.ProgramCount = after.TotalPrograms

		h.Logger.Info("harness: generation complete",
			"run_id", h.RunID, "generation", gen, "best_bid", diag.BestBid, "mean_bid", diag.MeanBid,
			"team_count", diag.TeamCount, "program_count", diag.ProgramCount, "orphan_count", diag.OrphanCount)

		result.Diagnostics = append(result.Diagnostics, diag)
		result.BestByGeneration = append(result.BestByGeneration, diag.BestBid)
		result.FinalBestBid = diag.BestBid

		if h.Store != nil {
			if err := h.Store.SaveGenerationDiagnostics(ctx, h.RunID, result.Diagnostics); err != nil {
				h.Logger.Warn("harness: failed to persist generation diagnostics", "error", err)
			}
			if err := h.Store.SaveLineage(ctx, h.RunID, result.Lineage); err != nil {
				h.Logger.Warn("harness: failed to persist lineage", "error", err)
			}
		}
		for _, cb := range h.EpochCallbacks {
			cb(ctx, diag)
		}
		if h.EarlyStopCallback != nil && h.EarlyStopCallback() {
			h.Logger.Info("harness: early stop requested", "generation", gen)
			break
		}
	}
	return result, nil
}

// rankRoots evaluates every root against every input and returns them
// sorted best-bid-first. A root's score is the mean terminal bid of its
// graph evaluation path across inputs.
func (h *Harness) rankRoots(ctx context.Context, roots []model.TeamID, inputs [][]float64) ([]evo.ScoredRoot, error) {
	ranked := make([]evo.ScoredRoot, 0, len(roots))
	for _, root := range roots {
		var sum float64
		for _, input := range inputs {
			result, err := h.Evaluator.EvaluateGraph(ctx, h.Graph, root, input)
			if err != nil {
				return nil, fmt.Errorf("evaluate root %s: %w", root, err)
			}
			if len(result.Path) > 0 {
				sum += result.Path[len(result.Path)-1].Bid
			}
		}
		mean := 0.0
		if len(inputs) > 0 {
			mean = sum / float64(len(inputs))
		}
		ranked = append(ranked, evo.ScoredRoot{TeamID: root, Bid: mean})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Bid > ranked[j].Bid })
	return ranked, nil
}

// demoteNonElite keeps only the top K ranked roots as designated roots,
// demoting the rest (spec §2's "harness demotes non-elite roots" — GC
// then sweeps whatever becomes unreachable). It returns the generation's
// bid diagnostics and the IDs of the roots that survived as elite.
func (h *Harness) demoteNonElite(ranked []evo.ScoredRoot, generation int) (model.GenerationDiagnostics, []uint64) {
	keep := h.Config.K
	if keep > len(ranked) {
		keep = len(ranked)
	}
	eliteIDs := make([]uint64, 0, keep)
	for i := 0; i < keep; i++ {
		eliteIDs = append(eliteIDs, uint64(ranked[i].TeamID))
	}
	for i := keep; i < len(ranked); i++ {
		h.Graph.RemoveRoot(ranked[i].TeamID)
	}

	var sum float64
	for _, r := range ranked {
		sum += r.Bid
	}
	mean := 0.0
	if len(ranked) > 0 {
		mean = sum / float64(len(ranked))
	}
	best := 0.0
	if len(ranked) > 0 {
		best = ranked[0].Bid
	}
	diag := model.GenerationDiagnostics{
		VersionedRecord: model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion},
		RunID:           h.RunID,
		Generation:      generation,
		BestBid:         best,
		MeanBid:         mean,
	}
	return diag, eliteIDs
}
