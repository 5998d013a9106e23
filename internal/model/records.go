package model

// VersionedRecord is embedded in every record persisted by the harness
// store, the same way the teacher stamps schema/codec versions on every
// saved genome/population record.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// MutationConfigSnapshot mirrors evo.MutationConfig's five rates as
// plain data, so a RunRecord can carry the configuration a run was
// mutated with without internal/model importing internal/evo.
type MutationConfigSnapshot struct {
	RemoveProgramRate   float64 `json:"remove_program_rate"`
	AddProgramRate      float64 `json:"add_program_rate"`
	ProgramMutationRate float64 `json:"program_mutation_rate"`
	ProgramActionRate   float64 `json:"program_action_rate"`
	ActionMapRate       float64 `json:"action_map_rate"`
}

// EliteGeneration records which root teams survived demotion in one
// generation of a run.
type EliteGeneration struct {
	Generation int      `json:"generation"`
	RootIDs    []uint64 `json:"root_ids"`
}

// RunRecord summarizes one harness run: its configuration snapshot and
// the elite root lineage produced over its generations. The live graph
// itself is never persisted — only this bookkeeping.
type RunRecord struct {
	VersionedRecord
	ID                     string                 `json:"id"`
	Seed                   int64                  `json:"seed"`
	Generation             int                    `json:"generation"`
	MutationConfig         MutationConfigSnapshot `json:"mutation_config"`
	EliteRootsByGeneration []EliteGeneration      `json:"elite_roots_by_generation"`
}

// GenerationDiagnostics captures per-generation bidding and graph-shape
// statistics, recorded by the harness and consumed by the CLI/renderer.
type GenerationDiagnostics struct {
	VersionedRecord
	RunID        string  `json:"run_id"`
	Generation   int     `json:"generation"`
	BestBid      float64 `json:"best_bid"`
	MeanBid      float64 `json:"mean_bid"`
	TeamCount    int     `json:"team_count"`
	ProgramCount int     `json:"program_count"`
	OrphanCount  int     `json:"orphan_count"`
}

// LineageRecord traces which mutation operator produced each new root,
// and from which parent root, for post-hoc ancestry inspection.
type LineageRecord struct {
	VersionedRecord
	RunID        string `json:"run_id"`
	Generation   int    `json:"generation"`
	ChildRootID  uint64 `json:"child_root_id"`
	ParentRootID uint64 `json:"parent_root_id"`
	Operator     string `json:"operator"`
}
