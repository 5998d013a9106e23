package graph

import "github.com/wizardbeard/tpg/internal/model"

// ReachabilityResult is the outcome of a BFS traversal from one or many
// starting teams (spec §4.5).
type ReachabilityResult struct {
	Teams    map[model.TeamID]struct{}
	Programs map[model.ProgramID]struct{}
	Depth    map[model.TeamID]int
}

// Reachable runs a breadth-first search from starts and returns every
// team reachable, the union of their member programs, and the shortest
// team-hop distance from any starting team. A team already visited is
// not requeued unless a strictly shorter depth is discovered — with
// uniform edge weight this can only happen if the same team is one of
// several starting points, in which case its distance is 0 regardless
// of discovery order.
func (g *Graph) Reachable(starts []model.TeamID) *ReachabilityResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reachableLocked(starts)
}

// reachableLocked is Reachable's body, callable from methods that
// already hold g.mu (for reading).
func (g *Graph) reachableLocked(starts []model.TeamID) *ReachabilityResult {
	result := &ReachabilityResult{
		Teams:    make(map[model.TeamID]struct{}),
		Programs: make(map[model.ProgramID]struct{}),
		Depth:    make(map[model.TeamID]int),
	}

	type queued struct {
		id    model.TeamID
		depth int
	}
	var queue []queued
	for _, s := range starts {
		if _, ok := g.teams[s]; !ok {
			continue
		}
		if d, seen := result.Depth[s]; seen && d <= 0 {
			continue
		}
		result.Depth[s] = 0
		queue = append(queue, queued{id: s, depth: 0})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		team, ok := g.teams[cur.id]
		if !ok {
			continue
		}
		if _, visited := result.Teams[cur.id]; visited {
			continue
		}
		result.Teams[cur.id] = struct{}{}
		for _, pid := range team.Programs {
			result.Programs[pid] = struct{}{}
		}

		for dest := range team.OutEdges {
			nextDepth := cur.depth + 1
			if existing, seen := result.Depth[dest]; !seen || nextDepth < existing {
				result.Depth[dest] = nextDepth
				queue = append(queue, queued{id: dest, depth: nextDepth})
			}
		}
	}
	return result
}

// ShortestPaths returns just the depth map of Reachable, for callers
// that only need distances (used by the verifier's path-length stats).
func (g *Graph) ShortestPaths(starts []model.TeamID) map[model.TeamID]int {
	return g.Reachable(starts).Depth
}
