package graph

import (
	"fmt"

	"github.com/wizardbeard/tpg/internal/model"
)

// SetTeamAction is the single chokepoint through which action_map,
// out_edges, and in_edges are ever written (spec §4.2). Every mutation
// operator and every removal helper routes through this function so
// invariants I2, I4, and I5 hold inductively.
//
// dest == nil means "remove the mapping for programID, if any". A
// non-nil dest sets team's mapping for programID to *dest.
func (g *Graph) SetTeamAction(teamID model.TeamID, programID model.ProgramID, dest *model.TeamID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setTeamActionLocked(teamID, programID, dest)
}

// setTeamActionLocked is SetTeamAction's body, callable from other
// exported methods that already hold g.mu.
func (g *Graph) setTeamActionLocked(teamID model.TeamID, programID model.ProgramID, dest *model.TeamID) error {
	team, ok := g.teams[teamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	program, ok := g.programs[programID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, programID)
	}
	if !team.HasProgram(programID) {
		return fmt.Errorf("%w: %s not in %s", ErrNotInTeam, programID, teamID)
	}
	if dest != nil {
		if *dest == teamID {
			return fmt.Errorf("%w: %s", ErrSelfLoop, teamID)
		}
		if _, ok := g.teams[*dest]; !ok {
			return fmt.Errorf("%w: %s", ErrTeamNotFound, *dest)
		}
	}

	old, hadOld := team.ActionMap[programID]
	if hadOld == (dest != nil) && (dest == nil || old == *dest) {
		return nil
	}

	if dest == nil {
		delete(team.ActionMap, programID)
	} else {
		team.ActionMap[programID] = *dest
	}

	if hadOld {
		g.releaseTeamEdge(team, old)
		g.releaseProgramEdge(program, old)
	}

	if dest != nil {
		team.OutEdges[*dest] = struct{}{}
		if newDest, ok := g.teams[*dest]; ok {
			newDest.InEdges[teamID] = struct{}{}
		}
		program.OutEdges[*dest] = struct{}{}
	}
	return nil
}

// releaseTeamEdge drops old from team.OutEdges and team.id from
// old's InEdges, but only if no remaining action_map entry of team
// still targets old.
func (g *Graph) releaseTeamEdge(team *model.Team, old model.TeamID) {
	for _, v := range team.ActionMap {
		if v == old {
			return
		}
	}
	delete(team.OutEdges, old)
	if oldDest, ok := g.teams[old]; ok {
		delete(oldDest.InEdges, team.ID)
	}
}

// releaseProgramEdge drops old from program.OutEdges, but only if no
// team containing program still maps program to old.
func (g *Graph) releaseProgramEdge(program *model.Program, old model.TeamID) {
	for tid := range program.InEdges {
		t, ok := g.teams[tid]
		if !ok {
			continue
		}
		if v, ok := t.ActionMap[program.ID]; ok && v == old {
			return
		}
	}
	delete(program.OutEdges, old)
}
