package evo

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/model"
)

// PathCloneOperator implements the sketch in spec §4.7: pick a target
// team anywhere in the subgraph reachable from root, copy only the
// teams on the root-to-target path, and relink each copy's action map
// to the next copy. It does not itself mutate any program's genome or
// action — it only clones and relinks team structure. Its precise
// semantics are left open by spec §9's Open Questions, so it is covered
// by example-based tests only, not the invariant stress suite.
type PathCloneOperator struct {
	Graph  *graph.Graph
	Config MutationConfig
	Rand   *rand.Rand
}

func (op *PathCloneOperator) Name() string { return "path-clone" }

// Apply walks a BFS predecessor chain from root to target (chosen
// uniformly among teams reachable from root, root included), clones
// every team on that path in order, relinks each clone's action map
// entry to the next clone, and declares the head of the cloned path a
// new root.
func (op *PathCloneOperator) Apply(ctx context.Context, root model.TeamID) (model.TeamID, *MutationSummary, error) {
	path, err := op.pickPath(root)
	if err != nil {
		return 0, nil, err
	}

	clones := make([]model.TeamID, len(path))
	for i, teamID := range path {
		clone, err := op.Graph.CopyTeam(teamID)
		if err != nil {
			return 0, nil, fmt.Errorf("path-clone: copy %s: %w", teamID, err)
		}
		clones[i] = clone.ID
	}

	// Relink clone i's action-map entries that pointed at path[i+1] to
	// point at clones[i+1] instead, preserving the same triggering
	// program.
	for i := 0; i < len(clones)-1; i++ {
		cloneTeam, err := op.Graph.Team(clones[i])
		if err != nil {
			return 0, nil, err
		}
		origNext := path[i+1]
		newNext := clones[i+1]
		for pid, dest := range cloneTeam.ActionMap {
			if dest == origNext {
				d := newNext
				if err := op.Graph.SetTeamAction(clones[i], pid, &d); err != nil {
					return 0, nil, fmt.Errorf("path-clone: relink %s: %w", clones[i], err)
				}
			}
		}
	}

	if err := op.Graph.AddRoot(clones[0]); err != nil {
		return 0, nil, fmt.Errorf("path-clone: declare root %s: %w", clones[0], err)
	}

	summary := &MutationSummary{Operator: op.Name(), ParentRoot: root, ChildRoot: clones[0]}
	return clones[0], summary, nil
}

// pickPath returns a root-to-target path (team IDs, root first) via BFS
// predecessor tracking. The target is chosen uniformly among all teams
// reachable from root.
func (op *PathCloneOperator) pickPath(root model.TeamID) ([]model.TeamID, error) {
	if _, err := op.Graph.Team(root); err != nil {
		return nil, fmt.Errorf("path-clone: %w", err)
	}

	predecessor := map[model.TeamID]model.TeamID{root: root}
	order := []model.TeamID{root}
	queue := []model.TeamID{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		team, err := op.Graph.Team(cur)
		if err != nil {
			continue
		}
		for dest := range team.OutEdges {
			if _, seen := predecessor[dest]; seen {
				continue
			}
			predecessor[dest] = cur
			order = append(order, dest)
			queue = append(queue, dest)
		}
	}

	target := order[op.Rand.Intn(len(order))]
	var path []model.TeamID
	for cur := target; ; cur = predecessor[cur] {
		path = append([]model.TeamID{cur}, path...)
		if cur == root {
			break
		}
	}
	return path, nil
}
