// Package evo implements the TPG mutation operators (spec §4.7) and the
// pluggable root-selection strategies the reference harness uses to pick
// a parent each generation (spec §11's supplemented feature, grounded on
// the teacher's own evo.Selector shape).
package evo

import "fmt"

// MutationConfig holds the five mutation-rate probabilities from spec
// §4.7/§6, loadable from YAML by internal/harnessconfig.
type MutationConfig struct {
	RemoveProgramRate   float64 `yaml:"remove_program_rate"`
	AddProgramRate      float64 `yaml:"add_program_rate"`
	ProgramMutationRate float64 `yaml:"program_mutation_rate"`
	ProgramActionRate   float64 `yaml:"program_action_rate"`
	ActionMapRate       float64 `yaml:"action_map_rate"`
}

// DefaultMutationConfig returns the rates used by the CLI demo and the
// harness's default profile.
func DefaultMutationConfig() MutationConfig {
	return MutationConfig{
		RemoveProgramRate:   0.2,
		AddProgramRate:      0.2,
		ProgramMutationRate: 0.3,
		ProgramActionRate:   0.1,
		ActionMapRate:       0.3,
	}
}

// Validate reports an error if any rate is outside [0, 1].
func (c MutationConfig) Validate() error {
	rates := map[string]float64{
		"remove_program_rate":  c.RemoveProgramRate,
		"add_program_rate":     c.AddProgramRate,
		"program_mutation_rate": c.ProgramMutationRate,
		"program_action_rate":  c.ProgramActionRate,
		"action_map_rate":      c.ActionMapRate,
	}
	for name, v := range rates {
		if v < 0 || v > 1 {
			return fmt.Errorf("evo: %s must be in [0, 1], got %v", name, v)
		}
	}
	return nil
}
