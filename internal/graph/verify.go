package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/wizardbeard/tpg/internal/model"
)

// Mismatch describes a single invariant violation found by
// VerifyIntegrity. In a correctly-functioning graph this list is always
// empty; a non-empty list after Cleanup indicates a bug in the edge
// machinery (spec §4.6, §7).
type Mismatch struct {
	Kind    string
	Team    model.TeamID
	Program model.ProgramID
	Detail  string
}

// PathStats summarizes shortest-path lengths (in team-hops) from any
// root to every reachable team.
type PathStats struct {
	Min, Max int
	Mean     float64
	StdDev   float64
}

// Report is the result of VerifyIntegrity (spec §4.6).
type Report struct {
	TotalTeams        int
	TotalPrograms     int
	ReachableTeams    int
	ReachablePrograms int
	TeamCoverage      float64
	ProgramCoverage   float64

	OrphanedTeams    []model.TeamID
	OrphanedPrograms []model.ProgramID

	Mismatches []Mismatch
	Paths      PathStats
}

// Consistent reports whether the report found zero mismatches.
func (r *Report) Consistent() bool {
	return len(r.Mismatches) == 0
}

// VerifyIntegrity walks every team reachable from a root and checks it
// (and every reachable program) against the recomputed edge sets,
// per spec §4.6. It never mutates the graph.
func (g *Graph) VerifyIntegrity() *Report {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.verifyLocked()
}

func (g *Graph) verifyLocked() *Report {
	roots := make([]model.TeamID, 0, len(g.roots))
	for id := range g.roots {
		roots = append(roots, id)
	}
	reach := g.reachableLocked(roots)

	report := &Report{
		TotalTeams:        len(g.teams),
		TotalPrograms:     len(g.programs),
		ReachableTeams:    len(reach.Teams),
		ReachablePrograms: len(reach.Programs),
	}
	if report.TotalTeams > 0 {
		report.TeamCoverage = float64(report.ReachableTeams) / float64(report.TotalTeams)
	}
	if report.TotalPrograms > 0 {
		report.ProgramCoverage = float64(report.ReachablePrograms) / float64(report.TotalPrograms)
	}

	for id := range g.teams {
		if _, ok := reach.Teams[id]; !ok {
			report.OrphanedTeams = append(report.OrphanedTeams, id)
		}
	}
	for id := range g.programs {
		if _, ok := reach.Programs[id]; !ok {
			report.OrphanedPrograms = append(report.OrphanedPrograms, id)
		}
	}
	sortTeamIDs(report.OrphanedTeams)
	sortProgramIDs(report.OrphanedPrograms)

	// Recompute, over the whole graph, which teams map to a given team
	// and what a given program's cross-team out-edges should be.
	incomingByTeam := make(map[model.TeamID]map[model.TeamID]struct{})
	outByProgram := make(map[model.ProgramID]map[model.TeamID]struct{})
	containingTeams := make(map[model.ProgramID]map[model.TeamID]struct{})
	for tid, t := range g.teams {
		for _, pid := range t.Programs {
			if containingTeams[pid] == nil {
				containingTeams[pid] = make(map[model.TeamID]struct{})
			}
			containingTeams[pid][tid] = struct{}{}
		}
		for pid, dest := range t.ActionMap {
			if incomingByTeam[dest] == nil {
				incomingByTeam[dest] = make(map[model.TeamID]struct{})
			}
			incomingByTeam[dest][tid] = struct{}{}
			if outByProgram[pid] == nil {
				outByProgram[pid] = make(map[model.TeamID]struct{})
			}
			outByProgram[pid][dest] = struct{}{}
		}
	}

	for tid := range reach.Teams {
		team := g.teams[tid]
		for pid := range team.ActionMap {
			if !team.HasProgram(pid) {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Kind: "I1", Team: tid, Program: pid,
					Detail: "action_map key not in team.programs",
				})
			}
		}
		if !sameTeamSet(team.OutEdges, valuesOf(team.ActionMap)) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Kind: "I2", Team: tid,
				Detail: "out_edges does not equal values(action_map)",
			})
		}
		if !sameTeamSet(team.InEdges, incomingByTeam[tid]) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Kind: "I5-team", Team: tid,
				Detail: "in_edges does not equal recomputed incoming teams",
			})
		}
	}

	for pid := range reach.Programs {
		program := g.programs[pid]
		if !sameTeamSet(program.InEdges, containingTeams[pid]) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Kind: "I3", Program: pid,
				Detail: "in_edges does not equal recomputed containing teams",
			})
		}
		if !sameTeamSet(program.OutEdges, outByProgram[pid]) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Kind: "I4", Program: pid,
				Detail: "out_edges does not equal recomputed action-map targets",
			})
		}
	}

	report.Paths = pathStats(reach.Depth, reach.Teams)
	if len(report.Mismatches) > 0 && g.Logger != nil {
		g.Logger.Warn("graph: verifier found residual mismatches",
			"count", len(report.Mismatches), "total_teams", report.TotalTeams, "total_programs", report.TotalPrograms)
	}
	return report
}

// Cleanup iteratively removes teams unreachable from any root and
// programs left with no owning team, per spec §4.6. It returns the
// pre-cleanup report, the IDs of programs that were deleted (so callers
// can drop their cache entries), and the post-cleanup verification
// report. If a pass removes nothing while orphans remain, it returns
// ErrGCStalled.
func (g *Graph) Cleanup() (before, after *Report, removedPrograms []model.ProgramID, err error) {
	g.mu.Lock()
	before = g.verifyLocked()
	g.mu.Unlock()

	for {
		g.mu.RLock()
		roots := make([]model.TeamID, 0, len(g.roots))
		for id := range g.roots {
			roots = append(roots, id)
		}
		reach := g.reachableLocked(roots)
		var orphanTeams []model.TeamID
		for id := range g.teams {
			if _, ok := reach.Teams[id]; !ok {
				orphanTeams = append(orphanTeams, id)
			}
		}
		var orphanPrograms []model.ProgramID
		for id, p := range g.programs {
			if _, ok := reach.Programs[id]; ok {
				continue
			}
			if len(p.InEdges) == 0 {
				orphanPrograms = append(orphanPrograms, id)
			}
		}
		g.mu.RUnlock()

		if len(orphanTeams) == 0 && len(orphanPrograms) == 0 {
			break
		}

		removedThisPass := 0
		for _, tid := range orphanTeams {
			if err := g.RemoveTeam(tid, true); err != nil {
				return before, nil, removedPrograms, fmt.Errorf("cleanup: remove team %s: %w", tid, err)
			}
			removedThisPass++
		}

		g.mu.Lock()
		for _, pid := range orphanPrograms {
			p, ok := g.programs[pid]
			if !ok || len(p.InEdges) != 0 {
				continue
			}
			delete(g.programs, pid)
			removedPrograms = append(removedPrograms, pid)
			removedThisPass++
		}
		g.mu.Unlock()

		if removedThisPass == 0 {
			if g.Logger != nil {
				g.Logger.Warn("graph: gc stalled with orphans remaining",
					"orphan_teams", len(orphanTeams), "orphan_programs", len(orphanPrograms))
			}
			return before, nil, removedPrograms, ErrGCStalled
		}
		if g.Logger != nil {
			g.Logger.Info("graph: gc pass removed orphans",
				"teams_removed", len(orphanTeams), "programs_removed", len(orphanPrograms))
		}
	}

	g.mu.RLock()
	after = g.verifyLocked()
	g.mu.RUnlock()
	return before, after, removedPrograms, nil
}

func valuesOf(m map[model.ProgramID]model.TeamID) map[model.TeamID]struct{} {
	out := make(map[model.TeamID]struct{}, len(m))
	for _, v := range m {
		out[v] = struct{}{}
	}
	return out
}

func sameTeamSet(a, b map[model.TeamID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sortTeamIDs(ids []model.TeamID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortProgramIDs(ids []model.ProgramID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func pathStats(depth map[model.TeamID]int, reachable map[model.TeamID]struct{}) PathStats {
	if len(reachable) == 0 {
		return PathStats{}
	}
	values := make([]int, 0, len(reachable))
	for id := range reachable {
		values = append(values, depth[id])
	}
	sort.Ints(values)

	stats := PathStats{Min: values[0], Max: values[len(values)-1]}
	sum := 0
	for _, v := range values {
		sum += v
	}
	stats.Mean = float64(sum) / float64(len(values))

	var variance float64
	for _, v := range values {
		d := float64(v) - stats.Mean
		variance += d * d
	}
	variance /= float64(len(values))
	stats.StdDev = math.Sqrt(variance)
	return stats
}
