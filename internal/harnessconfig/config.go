// Package harnessconfig loads the reference evolutionary harness's
// configuration (spec §6) from YAML, grounded on the pack's convention
// of loading run configuration directly with gopkg.in/yaml.v3 (the
// teacher's own cmd/protogonosctl/profiles.go validates a similarly
// shaped fixture, adapted here to YAML).
package harnessconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wizardbeard/tpg/internal/evo"
)

// HarnessConfig is the reference harness's full run configuration
// (spec §6).
type HarnessConfig struct {
	NumInitialTeams        int                 `yaml:"num_initial_teams"`
	ProgramsPerInitialTeam int                 `yaml:"programs_per_initial_team"`
	Generations            int                 `yaml:"generations"`
	NumOffspringPerGen     int                 `yaml:"num_offspring_per_gen"`
	K                      int                 `yaml:"k"`
	Selector               string              `yaml:"selector"`
	EliteCount             int                 `yaml:"elite_count"`
	CacheMode              string              `yaml:"cache_mode"`
	CacheMaxSize           int                 `yaml:"cache_max_size"`
	Seed                   int64               `yaml:"seed"`
	Mutation               evo.MutationConfig  `yaml:"mutation"`
}

// Default returns the configuration used by the CLI demo: a small
// population, a handful of generations, elite selection, and an LRU
// cache at its default size.
func Default() HarnessConfig {
	return HarnessConfig{
		NumInitialTeams:        8,
		ProgramsPerInitialTeam: 4,
		Generations:            20,
		NumOffspringPerGen:     4,
		K:                      3,
		Selector:               "elite",
		EliteCount:             2,
		CacheMode:              "lru",
		CacheMaxSize:           1000,
		Seed:                   1,
		Mutation:               evo.DefaultMutationConfig(),
	}
}

// Load reads and validates a HarnessConfig from a YAML file, filling any
// zero-valued field from Default() first.
func Load(path string) (HarnessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HarnessConfig{}, fmt.Errorf("harnessconfig: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return HarnessConfig{}, fmt.Errorf("harnessconfig: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return HarnessConfig{}, err
	}
	return cfg, nil
}

// Validate checks structural invariants beyond what YAML unmarshaling
// enforces on its own.
func (c HarnessConfig) Validate() error {
	if c.NumInitialTeams <= 0 {
		return fmt.Errorf("harnessconfig: num_initial_teams must be positive")
	}
	if c.ProgramsPerInitialTeam <= 0 {
		return fmt.Errorf("harnessconfig: programs_per_initial_team must be positive")
	}
	if c.Generations < 0 {
		return fmt.Errorf("harnessconfig: generations must not be negative")
	}
	if c.NumOffspringPerGen <= 0 {
		return fmt.Errorf("harnessconfig: num_offspring_per_gen must be positive")
	}
	if c.K <= 0 {
		return fmt.Errorf("harnessconfig: k must be positive")
	}
	if c.EliteCount <= 0 {
		return fmt.Errorf("harnessconfig: elite_count must be positive")
	}
	switch c.Selector {
	case "elite", "tournament":
	default:
		return fmt.Errorf("harnessconfig: unknown selector %q", c.Selector)
	}
	switch c.CacheMode {
	case "off", "per_input", "lru":
	default:
		return fmt.Errorf("harnessconfig: unknown cache_mode %q", c.CacheMode)
	}
	return c.Mutation.Validate()
}
