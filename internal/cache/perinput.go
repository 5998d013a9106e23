package cache

import (
	"sync"

	"github.com/wizardbeard/tpg/internal/model"
)

// perInputCache is the unbounded mode: a plain mapping (program, key) ->
// bid that grows without limit until the owning program is forgotten.
// Not part of the concurrency contract for warmup (spec §5) — only LRU
// is guaranteed safe there.
type perInputCache struct {
	mu    sync.RWMutex
	inner map[model.ProgramID]map[uint64]float64
}

func newPerInputCache() *perInputCache {
	return &perInputCache{inner: make(map[model.ProgramID]map[uint64]float64)}
}

func (c *perInputCache) Get(program model.ProgramID, key uint64) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inner, ok := c.inner[program]
	if !ok {
		return 0, false
	}
	bid, ok := inner[key]
	return bid, ok
}

func (c *perInputCache) Set(program model.ProgramID, key uint64, bid float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inner, ok := c.inner[program]
	if !ok {
		inner = make(map[uint64]float64)
		c.inner[program] = inner
	}
	inner[key] = bid
}

func (c *perInputCache) Forget(program model.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inner, program)
}

func (c *perInputCache) CopyInto(from, to model.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.inner[from]
	if !ok {
		return
	}
	dst := make(map[uint64]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	c.inner[to] = dst
}
