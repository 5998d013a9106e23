package graph

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"

	"github.com/wizardbeard/tpg/internal/model"
)

// Graph is the arena+index store for programs, teams, and root
// designations. It owns every Program and Team by value of their ID;
// every other reference into the graph is a lookup by ID that may fail.
// Public methods are safe for concurrent read/write from a single
// evaluating-or-mutating caller at a time (spec §5): the mutex here
// guards bookkeeping races, it is not a substitute for the "no two
// mutations concurrently" contract.
type Graph struct {
	mu sync.RWMutex

	programs map[model.ProgramID]*model.Program
	teams    map[model.TeamID]*model.Team
	roots    map[model.TeamID]struct{}

	nextProgramID uint64
	nextTeamID    uint64

	actions *model.ActionSet
	rng     *rand.Rand

	Logger *slog.Logger
}

// New returns an empty graph. rng seeds the random action pick in
// AddProgram when no explicit action is supplied; pass a seeded
// *rand.Rand for reproducible tests.
func New(rng *rand.Rand, actions *model.ActionSet) *Graph {
	if actions == nil {
		actions = model.NewActionSet()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Graph{
		programs: make(map[model.ProgramID]*model.Program),
		teams:    make(map[model.TeamID]*model.Team),
		roots:    make(map[model.TeamID]struct{}),
		actions:  actions,
		rng:      rng,
		Logger:   slog.Default(),
	}
}

// Actions returns the graph's action set, shared and mutated in place by
// UpdateActions.
func (g *Graph) Actions() *model.ActionSet {
	return g.actions
}

// UpdateActions replaces the action alphabet (spec §6's update_actions).
// Programs already assigned an action no longer in the new set keep that
// action; callers are warned it may fall outside the current alphabet.
func (g *Graph) UpdateActions(values []any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.actions.Replace(values)
	if g.Logger != nil {
		g.Logger.Warn("graph: action set replaced; existing programs may hold actions outside the new set")
	}
}

// Program looks up a program by ID.
func (g *Graph) Program(id model.ProgramID) (*model.Program, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.programLocked(id)
}

func (g *Graph) programLocked(id model.ProgramID) (*model.Program, error) {
	p, ok := g.programs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, id)
	}
	return p, nil
}

// Team looks up a team by ID.
func (g *Graph) Team(id model.TeamID) (*model.Team, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.teamLocked(id)
}

func (g *Graph) teamLocked(id model.TeamID) (*model.Team, error) {
	t, ok := g.teams[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	return t, nil
}

// Programs returns a snapshot slice of every program currently stored,
// sorted by ID. Ordering is deterministic so callers indexing into the
// result with a seeded *rand.Rand (internal/evo) get reproducible picks
// across runs — Go's own map iteration order is not.
func (g *Graph) Programs() []*model.Program {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*model.Program, 0, len(g.programs))
	for _, p := range g.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Teams returns a snapshot slice of every team currently stored, sorted
// by ID. See Programs for why the order must be deterministic.
func (g *Graph) Teams() []*model.Team {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*model.Team, 0, len(g.teams))
	for _, t := range g.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RootTeams returns a snapshot slice of the current root team IDs.
func (g *Graph) RootTeams() []model.TeamID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.TeamID, 0, len(g.roots))
	for id := range g.roots {
		out = append(out, id)
	}
	return out
}

// IsRoot reports whether id is currently a designated root.
func (g *Graph) IsRoot(id model.TeamID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.roots[id]
	return ok
}

// AddRoot designates an existing team as a root (I7 requires the team to
// already exist).
func (g *Graph) AddRoot(id model.TeamID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.teams[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	g.roots[id] = struct{}{}
	return nil
}

// RemoveRoot demotes a team from root status without deleting it. GC
// will later collect it if it becomes unreachable.
func (g *Graph) RemoveRoot(id model.TeamID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.roots, id)
}

// AddProgram mints a fresh ProgramID and registers a new program with
// the given genome. The action is picked per spec §4.1: an explicit
// action (hasAction) must be a member of the action set, otherwise (if
// the set is non-empty) one is chosen uniformly at random, otherwise the
// program is left with no action.
func (g *Graph) AddProgram(genome []byte, action any, hasAction bool) (*model.Program, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if hasAction {
		if !g.actions.Contains(action) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, action)
		}
	} else if g.actions.Len() > 0 {
		action = g.actions.At(g.rng.Intn(g.actions.Len()))
		hasAction = true
	}

	g.nextProgramID++
	id := model.ProgramID(g.nextProgramID)
	p := model.NewProgram(id, genome, action, hasAction)
	g.programs[id] = p
	return p, nil
}

// AddTeam constructs a new team from a list of member program IDs (no
// duplicates permitted) and an optional initial action map, applying
// every entry through SetTeamAction so edges are consistent from the
// moment of creation (spec §4.1).
func (g *Graph) AddTeam(programIDs []model.ProgramID, actionMap map[model.ProgramID]model.TeamID) (*model.Team, error) {
	g.mu.Lock()

	seen := make(map[model.ProgramID]struct{}, len(programIDs))
	for _, pid := range programIDs {
		if _, dup := seen[pid]; dup {
			g.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProgram, pid)
		}
		seen[pid] = struct{}{}
		if _, ok := g.programs[pid]; !ok {
			g.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, pid)
		}
	}

	g.nextTeamID++
	id := model.TeamID(g.nextTeamID)
	t := model.NewTeam(id)
	t.Programs = append(t.Programs, programIDs...)
	g.teams[id] = t

	for _, pid := range programIDs {
		g.programs[pid].InEdges[id] = struct{}{}
	}
	g.mu.Unlock()

	for pid, dest := range actionMap {
		if err := g.SetTeamAction(id, pid, &dest); err != nil {
			return nil, fmt.Errorf("add team %s: %w", id, err)
		}
	}
	return t, nil
}
