// Package render emits a text graph description (Graphviz DOT) for a
// TPG rooted at a given team, per spec §6: "a thin consumer of the data
// model." It only reads the graph via its public traversal API.
package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/model"
)

// WriteDOT walks every team reachable from root and writes a DOT
// digraph: each team is a node labeled with its member program IDs and
// their assigned actions (root teams styled distinctly), and each
// action-map entry is an edge labeled with the triggering program ID.
func WriteDOT(w io.Writer, g *graph.Graph, root model.TeamID) error {
	reach := g.Reachable([]model.TeamID{root})

	teamIDs := make([]model.TeamID, 0, len(reach.Teams))
	for id := range reach.Teams {
		teamIDs = append(teamIDs, id)
	}
	sort.Slice(teamIDs, func(i, j int) bool { return teamIDs[i] < teamIDs[j] })

	if _, err := fmt.Fprintln(w, "digraph tpg {"); err != nil {
		return err
	}
	for _, tid := range teamIDs {
		team, err := g.Team(tid)
		if err != nil {
			return err
		}
		style := ""
		if g.IsRoot(tid) {
			style = ` style="filled" fillcolor="lightgrey"`
		}
		label, err := teamLabel(g, team)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  %q [label=%q%s];\n", tid.String(), label, style); err != nil {
			return err
		}
	}
	for _, tid := range teamIDs {
		team, err := g.Team(tid)
		if err != nil {
			return err
		}
		programs := make([]model.ProgramID, 0, len(team.ActionMap))
		for pid := range team.ActionMap {
			programs = append(programs, pid)
		}
		sort.Slice(programs, func(i, j int) bool { return programs[i] < programs[j] })
		for _, pid := range programs {
			dest := team.ActionMap[pid]
			if _, err := fmt.Fprintf(w, "  %q -> %q [label=%q];\n", tid.String(), dest.String(), pid.String()); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func teamLabel(g *graph.Graph, team *model.Team) (string, error) {
	label := team.ID.String()
	for _, pid := range team.Programs {
		program, err := g.Program(pid)
		if err != nil {
			return "", err
		}
		label += "\\n" + pid.String()
		if program.HasAction {
			label += fmt.Sprintf("=%v", program.Action)
		}
	}
	return label, nil
}
