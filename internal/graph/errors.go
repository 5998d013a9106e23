// Package graph implements the Tangled Program Graph store: the
// program/team arena, the edge-maintenance chokepoint, traversal, and
// the integrity verifier / garbage collector. See spec §3 and §4.
package graph

import "errors"

var (
	// ErrProgramNotFound is returned when a ProgramID has no entry in the
	// graph's program table.
	ErrProgramNotFound = errors.New("graph: program not found")

	// ErrTeamNotFound is returned when a TeamID has no entry in the
	// graph's team table.
	ErrTeamNotFound = errors.New("graph: team not found")

	// ErrDuplicateProgram is returned by AddTeam when the given program
	// list contains the same ProgramID twice.
	ErrDuplicateProgram = errors.New("graph: duplicate program in team")

	// ErrNotInTeam is returned when an operation names a program that is
	// not currently a member of the given team.
	ErrNotInTeam = errors.New("graph: program is not a member of team")

	// ErrSelfLoop is returned by SetTeamAction when the destination team
	// equals the source team (invariant I6).
	ErrSelfLoop = errors.New("graph: team action map cannot target itself")

	// ErrTeamHasIncomingEdges is returned by RemoveTeam when the team
	// still has non-empty InEdges and force was not requested.
	ErrTeamHasIncomingEdges = errors.New("graph: team has incoming edges, use force")

	// ErrInvalidAction is returned by AddProgram when an explicit action
	// is not a member of the graph's action set.
	ErrInvalidAction = errors.New("graph: action is not a member of the action set")

	// ErrEmptyTeam names the condition of a team left with zero
	// programs. No function in this package returns it.
	ErrEmptyTeam = errors.New("graph: team would be left with no programs")

	// ErrVerificationFailed is wrapped by harness.Run when the Report
	// from VerifyIntegrity after cleanup carries residual mismatches.
	ErrVerificationFailed = errors.New("graph: integrity verification failed")

	// ErrGCStalled is returned by Cleanup when a sweep pass removes
	// nothing while orphans remain — a bug in the edge machinery.
	ErrGCStalled = errors.New("graph: garbage collection stalled with orphans remaining")
)
