package model

// Program is a bidder: a genome, an optional action, and the edge sets
// that record which teams contain it and which teams it can jump to.
type Program struct {
	// ID is immutable once the program is created.
	ID ProgramID

	// Genome is the opaque payload handed to the ProgramBackend verbatim.
	Genome []byte

	// Decoded caches the executable derived from Genome. It is produced
	// lazily on first evaluation and invalidated whenever Genome changes.
	Decoded any

	// Action is the value emitted when this program wins a leaf team.
	// HasAction distinguishes "no action assigned" from a zero value.
	Action    any
	HasAction bool

	// InEdges is the set of teams that contain this program.
	InEdges map[TeamID]struct{}

	// OutEdges is the set of distinct destination teams reached via this
	// program, across every team that owns it.
	OutEdges map[TeamID]struct{}
}

// NewProgram constructs a program with empty edge sets. Callers register
// it with a Graph via AddProgram rather than constructing one directly.
func NewProgram(id ProgramID, genome []byte, action any, hasAction bool) *Program {
	return &Program{
		ID:        id,
		Genome:    genome,
		Action:    action,
		HasAction: hasAction,
		InEdges:   make(map[TeamID]struct{}),
		OutEdges:  make(map[TeamID]struct{}),
	}
}

// CloneGenome deep-copies a program for copy_program: the genome is
// copied, the decoded executable is dropped (re-derived on demand), the
// action is carried over, and edge sets start empty.
func (p *Program) CloneGenome(newID ProgramID) *Program {
	genome := append([]byte(nil), p.Genome...)
	return NewProgram(newID, genome, p.Action, p.HasAction)
}

// Team is a node: an ordered set of programs plus an action map giving
// outgoing edges to the next team reached when a given program wins.
type Team struct {
	// ID is immutable once the team is created.
	ID TeamID

	// Programs holds member program IDs in insertion order. No duplicates.
	Programs []ProgramID

	// ActionMap maps a member program to the team reached when it wins.
	// Every key must also appear in Programs (invariant I1).
	ActionMap map[ProgramID]TeamID

	// InEdges is the set of teams with a mapping whose value is this team.
	InEdges map[TeamID]struct{}

	// OutEdges is exactly the set of values currently in ActionMap.
	OutEdges map[TeamID]struct{}
}

// NewTeam constructs an empty team. Callers register it with a Graph via
// AddTeam rather than constructing one directly.
func NewTeam(id TeamID) *Team {
	return &Team{
		ID:        id,
		ActionMap: make(map[ProgramID]TeamID),
		InEdges:   make(map[TeamID]struct{}),
		OutEdges:  make(map[TeamID]struct{}),
	}
}

// HasProgram reports whether p is a current member of the team.
func (t *Team) HasProgram(p ProgramID) bool {
	for _, id := range t.Programs {
		if id == p {
			return true
		}
	}
	return false
}

// CloneActionMap returns a fresh copy of the team's action map, used by
// copy_team so the clone can be mutated without aliasing the parent.
func (t *Team) CloneActionMap() map[ProgramID]TeamID {
	out := make(map[ProgramID]TeamID, len(t.ActionMap))
	for k, v := range t.ActionMap {
		out[k] = v
	}
	return out
}
