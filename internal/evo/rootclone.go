package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/wizardbeard/tpg/internal/backend"
	"github.com/wizardbeard/tpg/internal/cache"
	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/model"
)

// RootCloneOperator implements spec §4.7's fully-specified strategy:
// clone the parent root, then roll each of the five mutation
// sub-operators against the clone. The parent root is never touched.
type RootCloneOperator struct {
	Graph   *graph.Graph
	Backend backend.ProgramBackend
	Cache   cache.Cache
	Rand    *rand.Rand
	Config  MutationConfig
	Logger  *slog.Logger
}

// NewRootCloneOperator wires the required collaborators together,
// defaulting Cache to off and Logger to slog.Default() if omitted.
func NewRootCloneOperator(g *graph.Graph, be backend.ProgramBackend, c cache.Cache, rng *rand.Rand, cfg MutationConfig) *RootCloneOperator {
	if c == nil {
		c = cache.New(cache.Off, 0)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RootCloneOperator{Graph: g, Backend: be, Cache: c, Rand: rng, Config: cfg, Logger: slog.Default()}
}

func (op *RootCloneOperator) Name() string { return "root-clone" }

// Apply performs the full root-clone strategy from spec §4.7 and
// returns the new root's ID plus a summary of which sub-steps fired.
func (op *RootCloneOperator) Apply(ctx context.Context, parent model.TeamID) (model.TeamID, *MutationSummary, error) {
	clone, err := op.Graph.CopyTeam(parent)
	if err != nil {
		return 0, nil, fmt.Errorf("root-clone: copy parent %s: %w", parent, err)
	}
	if err := op.Graph.AddRoot(clone.ID); err != nil {
		return 0, nil, fmt.Errorf("root-clone: declare root %s: %w", clone.ID, err)
	}

	summary := &MutationSummary{
		Operator:           op.Name(),
		ParentRoot:         parent,
		ChildRoot:          clone.ID,
		GenomeReplacements: make(map[model.ProgramID]model.ProgramID),
		ActionReplacements: make(map[model.ProgramID]model.ProgramID),
	}

	if err := op.maybeRemoveProgram(clone.ID, summary); err != nil {
		return 0, nil, err
	}
	if err := op.maybeAddProgram(clone.ID, summary); err != nil {
		return 0, nil, err
	}
	if err := op.mutateSnapshot(ctx, clone.ID, summary); err != nil {
		return 0, nil, err
	}
	if err := op.maybeActionMapOp(clone.ID, summary); err != nil {
		return 0, nil, err
	}

	return clone.ID, summary, nil
}

func (op *RootCloneOperator) maybeRemoveProgram(root model.TeamID, summary *MutationSummary) error {
	if op.Rand.Float64() >= op.Config.RemoveProgramRate {
		return nil
	}
	team, err := op.Graph.Team(root)
	if err != nil {
		return err
	}
	if len(team.Programs) <= 1 {
		op.Logger.Debug("root-clone: remove-program rolled but team has no removable member", "team", root)
		return nil
	}
	pid := team.Programs[op.Rand.Intn(len(team.Programs))]
	if err := op.Graph.RemoveProgramFromTeam(root, pid); err != nil {
		return fmt.Errorf("root-clone: remove program: %w", err)
	}
	summary.RemovedProgram = pid
	summary.DidRemove = true
	return nil
}

func (op *RootCloneOperator) maybeAddProgram(root model.TeamID, summary *MutationSummary) error {
	if op.Rand.Float64() >= op.Config.AddProgramRate {
		return nil
	}
	team, err := op.Graph.Team(root)
	if err != nil {
		return err
	}
	member := make(map[model.ProgramID]struct{}, len(team.Programs))
	for _, pid := range team.Programs {
		member[pid] = struct{}{}
	}
	var candidates []model.ProgramID
	for _, p := range op.Graph.Programs() {
		if _, in := member[p.ID]; !in {
			candidates = append(candidates, p.ID)
		}
	}
	if len(candidates) == 0 {
		op.Logger.Debug("root-clone: add-program rolled but no unmapped program is available", "team", root)
		return nil
	}
	pick := candidates[op.Rand.Intn(len(candidates))]
	if err := op.Graph.AddProgramToTeam(root, pick); err != nil {
		return fmt.Errorf("root-clone: add program: %w", err)
	}
	summary.AddedProgram = pick
	summary.DidAdd = true
	return nil
}

func (op *RootCloneOperator) mutateSnapshot(ctx context.Context, root model.TeamID, summary *MutationSummary) error {
	team, err := op.Graph.Team(root)
	if err != nil {
		return err
	}
	snapshot := append([]model.ProgramID(nil), team.Programs...)

	for _, original := range snapshot {
		current := original

		if op.Rand.Float64() < op.Config.ProgramMutationRate {
			replaced, err := op.mutateGenome(ctx, root, current)
			if err != nil {
				return err
			}
			summary.GenomeReplacements[original] = replaced
			current = replaced
		}

		if op.Rand.Float64() < op.Config.ProgramActionRate {
			replaced, err := op.mutateAction(root, current)
			if err != nil {
				return err
			}
			summary.ActionReplacements[original] = replaced
		}
	}
	return nil
}

// mutateGenome deep-copies program, mutates the copy's genome via the
// backend, invalidates its decoded executable (a fresh program never
// has one), and replaces it in root.
func (op *RootCloneOperator) mutateGenome(ctx context.Context, root model.TeamID, pid model.ProgramID) (model.ProgramID, error) {
	clone, err := op.Graph.CopyProgram(pid)
	if err != nil {
		return 0, fmt.Errorf("root-clone: copy program for genome mutation: %w", err)
	}
	mutated, err := op.Backend.Mutate(ctx, clone.Genome)
	if err != nil {
		return 0, fmt.Errorf("root-clone: mutate genome: %w", err)
	}
	clone.Genome = mutated
	clone.Decoded = nil

	if err := op.Graph.ReplaceProgramInTeam(root, pid, clone.ID); err != nil {
		return 0, fmt.Errorf("root-clone: replace mutated program: %w", err)
	}
	return clone.ID, nil
}

// mutateAction deep-copies program, reassigns its action to a different
// value from the graph's action set when possible, carries over the
// per-input cache (bids are unchanged, only the action differs), and
// replaces it in root.
func (op *RootCloneOperator) mutateAction(root model.TeamID, pid model.ProgramID) (model.ProgramID, error) {
	clone, err := op.Graph.CopyProgram(pid)
	if err != nil {
		return 0, fmt.Errorf("root-clone: copy program for action mutation: %w", err)
	}

	actions := op.Graph.Actions()
	if actions.Len() > 0 {
		next := clone.Action
		if actions.Len() > 1 {
			for {
				next = actions.At(op.Rand.Intn(actions.Len()))
				if next != clone.Action {
					break
				}
			}
		} else {
			next = actions.At(0)
		}
		clone.Action = next
		clone.HasAction = true
	}

	op.Cache.CopyInto(pid, clone.ID)

	if err := op.Graph.ReplaceProgramInTeam(root, pid, clone.ID); err != nil {
		return 0, fmt.Errorf("root-clone: replace action-mutated program: %w", err)
	}
	return clone.ID, nil
}

func (op *RootCloneOperator) maybeActionMapOp(root model.TeamID, summary *MutationSummary) error {
	if op.Rand.Float64() >= op.Config.ActionMapRate {
		return nil
	}
	switch op.Rand.Intn(3) {
	case 0:
		return op.actionMapAdd(root, summary)
	case 1:
		return op.actionMapChange(root, summary)
	default:
		return op.actionMapRemove(root, summary)
	}
}

func (op *RootCloneOperator) actionMapAdd(root model.TeamID, summary *MutationSummary) error {
	team, err := op.Graph.Team(root)
	if err != nil {
		return err
	}
	var unmapped []model.ProgramID
	for _, pid := range team.Programs {
		if _, mapped := team.ActionMap[pid]; !mapped {
			unmapped = append(unmapped, pid)
		}
	}
	if len(unmapped) == 0 {
		op.Logger.Debug("root-clone: action-map add rolled but every program is already mapped", "team", root)
		return nil
	}
	var destinations []model.TeamID
	for _, t := range op.Graph.Teams() {
		if t.ID != root {
			destinations = append(destinations, t.ID)
		}
	}
	if len(destinations) == 0 {
		op.Logger.Debug("root-clone: action-map add rolled but no destination team exists", "team", root)
		return nil
	}
	pid := unmapped[op.Rand.Intn(len(unmapped))]
	dest := destinations[op.Rand.Intn(len(destinations))]
	if err := op.Graph.SetTeamAction(root, pid, &dest); err != nil {
		return fmt.Errorf("root-clone: action-map add: %w", err)
	}
	summary.ActionMapOp = "add"
	return nil
}

func (op *RootCloneOperator) actionMapChange(root model.TeamID, summary *MutationSummary) error {
	team, err := op.Graph.Team(root)
	if err != nil {
		return err
	}
	if len(team.ActionMap) == 0 {
		op.Logger.Debug("root-clone: action-map change rolled but team has no mapped program", "team", root)
		return nil
	}
	mapped := make([]model.ProgramID, 0, len(team.ActionMap))
	for pid := range team.ActionMap {
		mapped = append(mapped, pid)
	}
	sort.Slice(mapped, func(i, j int) bool { return mapped[i] < mapped[j] })
	pid := mapped[op.Rand.Intn(len(mapped))]
	currentDest := team.ActionMap[pid]

	var destinations []model.TeamID
	for _, t := range op.Graph.Teams() {
		if t.ID != root && t.ID != currentDest {
			destinations = append(destinations, t.ID)
		}
	}
	if len(destinations) == 0 {
		op.Logger.Debug("root-clone: action-map change rolled but no alternate destination team exists", "team", root)
		return nil
	}
	dest := destinations[op.Rand.Intn(len(destinations))]
	if err := op.Graph.SetTeamAction(root, pid, &dest); err != nil {
		return fmt.Errorf("root-clone: action-map change: %w", err)
	}
	summary.ActionMapOp = "change"
	return nil
}

func (op *RootCloneOperator) actionMapRemove(root model.TeamID, summary *MutationSummary) error {
	team, err := op.Graph.Team(root)
	if err != nil {
		return err
	}
	if len(team.ActionMap) == 0 {
		op.Logger.Debug("root-clone: action-map remove rolled but team has no mapped program", "team", root)
		return nil
	}
	mapped := make([]model.ProgramID, 0, len(team.ActionMap))
	for pid := range team.ActionMap {
		mapped = append(mapped, pid)
	}
	sort.Slice(mapped, func(i, j int) bool { return mapped[i] < mapped[j] })
	pid := mapped[op.Rand.Intn(len(mapped))]
	if err := op.Graph.SetTeamAction(root, pid, nil); err != nil {
		return fmt.Errorf("root-clone: action-map remove: %w", err)
	}
	summary.ActionMapOp = "remove"
	return nil
}
