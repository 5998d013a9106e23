// Package backend defines the ProgramBackend capability the graph engine
// calls through to decode, evaluate, and mutate the numeric substrate
// inside a program's genome. The substrate itself is out of scope for
// the graph engine; this package only declares the contract plus one
// reference implementation used by tests, the CLI demo, and property
// stress tests.
package backend

import "context"

// ProgramBackend decodes genomes into executables, evaluates them on an
// input, mutates genomes, and hashes inputs for the evaluation cache.
// Implementations must be safe for concurrent Evaluate calls against
// distinct Executables (the warmup pool gives each worker its own
// decoded executable per program).
type ProgramBackend interface {
	// RandomGenome produces a new genome with no external seed material.
	RandomGenome(ctx context.Context) ([]byte, error)

	// Decode turns a genome into an executable. Called lazily, at most
	// once per program per decoded-cache lifetime.
	Decode(ctx context.Context, genome []byte) (Executable, error)

	// Evaluate runs the executable against an input and returns a bid.
	Evaluate(ctx context.Context, exec Executable, input []float64) (float64, error)

	// Mutate returns a mutated copy of genome; the input is never modified.
	Mutate(ctx context.Context, genome []byte) ([]byte, error)

	// Hash returns a 64-bit key used by the evaluation cache.
	Hash(input []float64) uint64

	// DeepCopy returns an independent copy of genome.
	DeepCopy(genome []byte) []byte
}

// Executable is an opaque decoded program, produced by Decode and
// consumed by Evaluate. Implementations may hold per-evaluation scratch
// state; Reset clears it between unrelated evaluations.
type Executable interface {
	Reset()
}
