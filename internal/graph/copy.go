package graph

import (
	"fmt"

	"github.com/wizardbeard/tpg/internal/model"
)

// CopyProgram deep-copies a program's genome into a fresh program with a
// new ID, preserving its assigned action and starting with empty edge
// sets (spec §4.4). The decoded executable is not copied — it is
// re-derived lazily on the clone's first evaluation.
func (g *Graph) CopyProgram(id model.ProgramID) (*model.Program, error) {
	g.mu.Lock()
	src, ok := g.programs[id]
	if !ok {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, id)
	}
	g.nextProgramID++
	newID := model.ProgramID(g.nextProgramID)
	clone := src.CloneGenome(newID)
	g.programs[newID] = clone
	g.mu.Unlock()
	return clone, nil
}

// CopyTeam creates a new team sharing the same member program
// references as t and a copied action map, then re-applies every edge
// through AddTeam/SetTeamAction so the clone's in/out edges and the
// affected programs' edges are updated from scratch (spec §4.4). The
// original team t is left byte-for-byte unmodified.
func (g *Graph) CopyTeam(id model.TeamID) (*model.Team, error) {
	g.mu.RLock()
	src, ok := g.teams[id]
	if !ok {
		g.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	programIDs := append([]model.ProgramID(nil), src.Programs...)
	actionMap := src.CloneActionMap()
	g.mu.RUnlock()

	return g.AddTeam(programIDs, actionMap)
}
