package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/wizardbeard/tpg/internal/model"
)

// lruCache is the bounded mode: a concurrent map at the ProgramID level
// (atomic get-or-create of each program's inner cache) whose inner
// per-program cache is itself safe for concurrent reads and writes.
// This is the only mode the warmup pool (spec §5) may use.
type lruCache struct {
	maxSize int

	mu    sync.RWMutex
	inner map[model.ProgramID]*programLRU
}

func newLRUCache(maxSize int) *lruCache {
	return &lruCache{maxSize: maxSize, inner: make(map[model.ProgramID]*programLRU)}
}

// programLRU is one program's bounded (key -> bid) cache with hit/miss
// counters, evicting least-recently-used on insert past maxSize.
type programLRU struct {
	maxSize int

	mu      sync.Mutex
	order   *list.List // front = most recently used
	entries map[uint64]*list.Element

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry struct {
	key uint64
	bid float64
}

func newProgramLRU(maxSize int) *programLRU {
	return &programLRU{
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[uint64]*list.Element),
	}
}

func (c *lruCache) programCache(program model.ProgramID, create bool) *programLRU {
	c.mu.RLock()
	p, ok := c.inner[program]
	c.mu.RUnlock()
	if ok || !create {
		return p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.inner[program]; ok {
		return p
	}
	p = newProgramLRU(c.maxSize)
	c.inner[program] = p
	return p
}

func (c *lruCache) Get(program model.ProgramID, key uint64) (float64, bool) {
	p := c.programCache(program, true)
	return p.get(key)
}

func (c *lruCache) Set(program model.ProgramID, key uint64, bid float64) {
	p := c.programCache(program, true)
	p.set(key, bid)
}

func (c *lruCache) Forget(program model.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inner, program)
}

func (c *lruCache) CopyInto(from, to model.ProgramID) {
	src := c.programCache(from, false)
	if src == nil {
		return
	}
	dst := newProgramLRU(src.maxSize)
	src.mu.Lock()
	for e := src.order.Back(); e != nil; e = e.Prev() {
		entry := e.Value.(lruEntry)
		dst.set(entry.key, entry.bid)
	}
	src.mu.Unlock()

	c.mu.Lock()
	c.inner[to] = dst
	c.mu.Unlock()
}

// Stats reports hit/miss counters for a program's LRU. Returns (0, 0)
// if the program has never been looked up or stored.
func (c *lruCache) Stats(program model.ProgramID) (hits, misses int64) {
	p := c.programCache(program, false)
	if p == nil {
		return 0, 0
	}
	return p.hits.Load(), p.misses.Load()
}

func (p *programLRU) get(key uint64) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		p.misses.Add(1)
		return 0, false
	}
	p.order.MoveToFront(e)
	p.hits.Add(1)
	return e.Value.(lruEntry).bid, true
}

func (p *programLRU) set(key uint64, bid float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[key]; ok {
		e.Value = lruEntry{key: key, bid: bid}
		p.order.MoveToFront(e)
		return
	}
	e := p.order.PushFront(lruEntry{key: key, bid: bid})
	p.entries[key] = e
	if p.maxSize > 0 && p.order.Len() > p.maxSize {
		oldest := p.order.Back()
		if oldest != nil {
			p.order.Remove(oldest)
			delete(p.entries, oldest.Value.(lruEntry).key)
		}
	}
}
