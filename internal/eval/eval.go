// Package eval implements program, team, and graph evaluation (spec
// §4.8): decoding and bidding on a single program, picking a team's
// winner, and walking a graph from a root to a terminal action with
// loop detection.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/wizardbeard/tpg/internal/backend"
	"github.com/wizardbeard/tpg/internal/cache"
	"github.com/wizardbeard/tpg/internal/graph"
	"github.com/wizardbeard/tpg/internal/model"
)

// Evaluator ties a ProgramBackend and a bid Cache together to run
// programs, teams, and whole graphs against an input vector.
type Evaluator struct {
	Backend backend.ProgramBackend
	Cache   cache.Cache
	Logger  *slog.Logger
}

// NewEvaluator returns an Evaluator with a no-op cache and the default
// logger if either is omitted.
func NewEvaluator(be backend.ProgramBackend, c cache.Cache) *Evaluator {
	if c == nil {
		c = cache.New(cache.Off, 0)
	}
	return &Evaluator{Backend: be, Cache: c, Logger: slog.Default()}
}

// EvaluateProgram decodes program lazily (caching the executable on
// program.Decoded) and evaluates it on input, consulting/populating the
// cache by the backend's input hash (spec §4.8).
func (e *Evaluator) EvaluateProgram(ctx context.Context, program *model.Program, input []float64) (float64, error) {
	key := e.Backend.Hash(input)
	if bid, ok := e.Cache.Get(program.ID, key); ok {
		return bid, nil
	}

	exec, ok := program.Decoded.(backend.Executable)
	if !ok {
		decoded, err := e.Backend.Decode(ctx, program.Genome)
		if err != nil {
			return 0, fmt.Errorf("evaluate program %s: decode: %w", program.ID, err)
		}
		program.Decoded = decoded
		exec = decoded
	}

	bid, err := e.Backend.Evaluate(ctx, exec, input)
	if err != nil {
		return 0, fmt.Errorf("evaluate program %s: %w", program.ID, err)
	}
	e.Cache.Set(program.ID, key, bid)
	return bid, nil
}

// TeamResult is the outcome of evaluating one team on one input.
type TeamResult struct {
	Bids     map[model.ProgramID]float64
	WinnerID model.ProgramID
	Bid      float64
	NextTeam model.TeamID
	HasNext  bool
}

// EvaluateTeam evaluates every member program on input, picks the
// winner by highest bid (ties broken by lowest ProgramID), and reports
// the destination team from the winner's action-map entry, if any
// (spec §4.8). A NaN bid is treated as the "non-numeric bid" case: a
// warning is logged and the first program in the team is chosen as a
// deterministic fallback.
func (e *Evaluator) EvaluateTeam(ctx context.Context, g *graph.Graph, team *model.Team, input []float64) (*TeamResult, error) {
	if len(team.Programs) == 0 {
		return nil, fmt.Errorf("evaluate team %s: team has no programs", team.ID)
	}

	bids := make(map[model.ProgramID]float64, len(team.Programs))
	nonNumeric := false
	for _, pid := range team.Programs {
		program, err := g.Program(pid)
		if err != nil {
			return nil, fmt.Errorf("evaluate team %s: %w", team.ID, err)
		}
		bid, err := e.EvaluateProgram(ctx, program, input)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(bid) {
			nonNumeric = true
		}
		bids[pid] = bid
	}

	var winner model.ProgramID
	if nonNumeric {
		e.Logger.Warn("non-numeric bid in team evaluation, falling back to first program",
			"team", team.ID.String())
		winner = team.Programs[0]
	} else {
		winner = team.Programs[0]
		best := bids[winner]
		for _, pid := range team.Programs[1:] {
			bid := bids[pid]
			if bid > best || (bid == best && pid < winner) {
				winner = pid
				best = bid
			}
		}
	}

	result := &TeamResult{Bids: bids, WinnerID: winner, Bid: bids[winner]}
	if dest, ok := team.ActionMap[winner]; ok {
		result.NextTeam = dest
		result.HasNext = true
	}
	return result, nil
}

// PathStep records one team visited during a graph evaluation and its
// winning bid, in visitation order (spec §4.8).
type PathStep struct {
	TeamID   model.TeamID
	WinnerID model.ProgramID
	Bid      float64
}

// GraphResult is the outcome of EvaluateGraph.
type GraphResult struct {
	Path       []PathStep
	Output     any
	LoopedTeam model.TeamID
	Looped     bool
}

// EvaluateGraph starts at root and repeatedly evaluates the current
// team, following the winner's action-map link, until the winner has no
// successor or a loop is detected (revisiting an already-visited team),
// per spec §4.8. The returned output is the final winning program's
// action if it has one, otherwise its bid.
func (e *Evaluator) EvaluateGraph(ctx context.Context, g *graph.Graph, root model.TeamID, input []float64) (*GraphResult, error) {
	visited := make(map[model.TeamID]struct{})
	result := &GraphResult{}

	current := root
	for {
		team, err := g.Team(current)
		if err != nil {
			return nil, fmt.Errorf("evaluate graph from %s: %w", root, err)
		}
		teamResult, err := e.EvaluateTeam(ctx, g, team, input)
		if err != nil {
			return nil, err
		}
		result.Path = append(result.Path, PathStep{TeamID: current, WinnerID: teamResult.WinnerID, Bid: teamResult.Bid})
		visited[current] = struct{}{}

		winner, err := g.Program(teamResult.WinnerID)
		if err != nil {
			return nil, fmt.Errorf("evaluate graph from %s: %w", root, err)
		}

		terminal := !teamResult.HasNext
		if teamResult.HasNext {
			if _, teamErr := g.Team(teamResult.NextTeam); teamErr != nil {
				terminal = true
			} else if _, seen := visited[teamResult.NextTeam]; seen {
				e.Logger.Info("loop detected during graph evaluation, terminating at revisited team",
					"team", teamResult.NextTeam.String())
				result.Looped = true
				result.LoopedTeam = teamResult.NextTeam
				terminal = true
			}
		}

		if terminal {
			if winner.HasAction {
				result.Output = winner.Action
			} else {
				result.Output = teamResult.Bid
			}
			return result, nil
		}
		current = teamResult.NextTeam
	}
}

