package graph

import (
	"fmt"

	"github.com/wizardbeard/tpg/internal/model"
)

// AddProgramToTeam inserts an existing program into an existing team
// with no action-map mapping, per spec §4.7 step 3 ("insert it into R
// with no mapping"). Duplicates are rejected, matching AddTeam's rule.
func (g *Graph) AddProgramToTeam(teamID model.TeamID, programID model.ProgramID) error {
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
	if team.HasProgram(programID) {
		return fmt.Errorf("%w: %s already in %s", ErrDuplicateProgram, programID, teamID)
	}

	team.Programs = append(team.Programs, programID)
	program.InEdges[teamID] = struct{}{}
	return nil
}

// ReplaceProgramInTeam swaps oldID for newID as a team member in place,
// preserving oldID's position and carrying over any action-map mapping
// it held (spec §4.7 step 4: "replace p with p' in R (preserving any
// action-map mapping and associated edges)"). newID must not already be
// a member.
func (g *Graph) ReplaceProgramInTeam(teamID model.TeamID, oldID, newID model.ProgramID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	team, ok := g.teams[teamID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	oldProgram, ok := g.programs[oldID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, oldID)
	}
	newProgram, ok := g.programs[newID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, newID)
	}
	if !team.HasProgram(oldID) {
		return fmt.Errorf("%w: %s not in %s", ErrNotInTeam, oldID, teamID)
	}
	if team.HasProgram(newID) {
		return fmt.Errorf("%w: %s already in %s", ErrDuplicateProgram, newID, teamID)
	}

	dest, hadDest := team.ActionMap[oldID]
	if hadDest {
		// Clear the mapping while old is still a recognized member so
		// the edge primitive's bookkeeping runs correctly.
		if err := g.setTeamActionLocked(teamID, oldID, nil); err != nil {
			return err
		}
	}

	for i, id := range team.Programs {
		if id == oldID {
			team.Programs[i] = newID
			break
		}
	}
	delete(oldProgram.InEdges, teamID)
	newProgram.InEdges[teamID] = struct{}{}

	if hadDest {
		d := dest
		if err := g.setTeamActionLocked(teamID, newID, &d); err != nil {
			return err
		}
	}
	return nil
}
