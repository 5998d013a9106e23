package graph

import (
	"fmt"

	"github.com/wizardbeard/tpg/internal/model"
)

// RemoveProgramFromTeam drops program from team.Programs, clears any
// action-map mapping it held via the edge primitive, and removes team
// from program's InEdges (spec §4.3). It does not delete the program
// record — GC does that once the program is orphaned.
func (g *Graph) RemoveProgramFromTeam(teamID model.TeamID, programID model.ProgramID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

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

	if err := g.setTeamActionLocked(teamID, programID, nil); err != nil {
		return err
	}

	for i, id := range team.Programs {
		if id == programID {
			team.Programs = append(team.Programs[:i], team.Programs[i+1:]...)
			break
		}
	}
	delete(program.InEdges, teamID)
	return nil
}

// RemoveTeam deletes a team outright. If the team still has incoming
// edges, the removal is refused unless force is set (spec §4.3). On a
// forced removal, every incoming team's action-map entries that target
// this team are cleared through the edge primitive, every outgoing
// destination's InEdges is cleared, every
// member program is detached via RemoveProgramFromTeam, the team is
// dropped from root_teams, and the team entry is deleted.
func (g *Graph) RemoveTeam(teamID model.TeamID, force bool) error {
	g.mu.Lock()

	team, ok := g.teams[teamID]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	if len(team.InEdges) > 0 && !force {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTeamHasIncomingEdges, teamID)
	}
	for srcID := range team.InEdges {
		src, ok := g.teams[srcID]
		if !ok {
			continue
		}
		for pid, dest := range src.ActionMap {
			if dest == teamID {
				if err := g.setTeamActionLocked(srcID, pid, nil); err != nil {
					g.mu.Unlock()
					return fmt.Errorf("remove team %s: %w", teamID, err)
				}
			}
		}
	}

	members := append([]model.ProgramID(nil), team.Programs...)
	g.mu.Unlock()

	// Detaching every member via RemoveProgramFromTeam clears each
	// action-map entry through the edge primitive, which is what
	// actually releases the destinations' InEdges and the departing
	// programs' OutEdges — see edges.go.

	for _, pid := range members {
		if err := g.RemoveProgramFromTeam(teamID, pid); err != nil {
			return fmt.Errorf("remove team %s: %w", teamID, err)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.roots, teamID)
	delete(g.teams, teamID)
	return nil
}
