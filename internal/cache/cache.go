// Package cache implements the three per-program bid caches described in
// spec §4.9 (off / per-input / LRU) and the concurrent warmup pool from
// spec §5 that prepopulates an LRU cache ahead of the sequential
// evaluation phase.
package cache

import "github.com/wizardbeard/tpg/internal/model"

// Mode selects a Cache implementation.
type Mode int

const (
	// Off performs no storage; every evaluation recomputes its bid.
	Off Mode = iota
	// PerInput is an unbounded per-program map that grows until Forget
	// is called.
	PerInput
	// LRU is a bounded per-program cache with configurable max size; it
	// is the only mode guaranteed safe for the concurrent warmup phase.
	LRU
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case PerInput:
		return "per_input"
	case LRU:
		return "lru"
	default:
		return "unknown"
	}
}

// DefaultLRUMaxSize is the default per-program LRU capacity (spec §6).
const DefaultLRUMaxSize = 1000

// Cache is logically a mapping ProgramID -> (input hash -> bid). It is
// the interface program evaluation (internal/eval) evaluates against;
// implementations differ in storage strategy and concurrency guarantees.
type Cache interface {
	// Get returns the cached bid for (program, key), if present.
	Get(program model.ProgramID, key uint64) (float64, bool)

	// Set stores a bid for (program, key).
	Set(program model.ProgramID, key uint64, bid float64)

	// Forget drops every entry for program, e.g. when it is garbage
	// collected.
	Forget(program model.ProgramID)

	// CopyInto duplicates from's inner mapping onto to. Used when a
	// program's action is mutated but its bids are unchanged (spec
	// §4.7 step 4's program-action sub-case, and copy_cache in §4.9).
	CopyInto(from, to model.ProgramID)
}

// New constructs a Cache for the given mode. maxSize is only meaningful
// for LRU; a non-positive value falls back to DefaultLRUMaxSize.
func New(mode Mode, maxSize int) Cache {
	switch mode {
	case PerInput:
		return newPerInputCache()
	case LRU:
		if maxSize <= 0 {
			maxSize = DefaultLRUMaxSize
		}
		return newLRUCache(maxSize)
	default:
		return offCache{}
	}
}

// offCache implements Cache with no storage at all.
type offCache struct{}

func (offCache) Get(model.ProgramID, uint64) (float64, bool) { return 0, false }
func (offCache) Set(model.ProgramID, uint64, float64)        {}
func (offCache) Forget(model.ProgramID)                      {}
func (offCache) CopyInto(model.ProgramID, model.ProgramID)   {}
