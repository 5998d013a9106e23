package evo

import (
	"fmt"
	"math/rand"

	"github.com/wizardbeard/tpg/internal/model"
)

// ScoredRoot pairs a root team with its most recent evaluation bid, the
// ranking currency the harness's parent-selection step uses (spec §4.7
// leaves "harness chooses a parent root" unspecified; §11 supplements
// it with pluggable strategies mirroring the teacher's genome-level
// selectors).
type ScoredRoot struct {
	TeamID model.TeamID
	Bid    float64
}

// Selector chooses a parent root from a bid-ranked slice (best first).
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredRoot, eliteCount int) (model.TeamID, error)
}

// EliteSelector picks uniformly among the top eliteCount roots.
type EliteSelector struct{}

func (EliteSelector) Name() string { return "elite" }

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredRoot, eliteCount int) (model.TeamID, error) {
	if rng == nil {
		return 0, fmt.Errorf("evo: random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return 0, fmt.Errorf("evo: invalid elite count %d for %d ranked roots", eliteCount, len(ranked))
	}
	return ranked[rng.Intn(eliteCount)].TeamID, nil
}

// TournamentSelector samples a pool and returns the best bid among a
// tournament-sized subsample of it.
type TournamentSelector struct {
	PoolSize       int
	TournamentSize int
}

func (TournamentSelector) Name() string { return "tournament" }

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredRoot, eliteCount int) (model.TeamID, error) {
	if rng == nil {
		return 0, fmt.Errorf("evo: random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return 0, fmt.Errorf("evo: invalid elite count %d for %d ranked roots", eliteCount, len(ranked))
	}

	poolSize := s.PoolSize
	if poolSize <= 0 {
		poolSize = eliteCount * 2
	}
	if poolSize < eliteCount {
		poolSize = eliteCount
	}
	if poolSize > len(ranked) {
		poolSize = len(ranked)
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > poolSize {
		tournamentSize = poolSize
	}

	best := ranked[rng.Intn(poolSize)]
	for i := 1; i < tournamentSize; i++ {
		candidate := ranked[rng.Intn(poolSize)]
		if candidate.Bid > best.Bid {
			best = candidate
		}
	}
	return best.TeamID, nil
}
