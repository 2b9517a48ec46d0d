package cache

import (
	"sync"
	"sync/atomic"
)

const DefaultShards = 32

// slot holds at most one entry per instance identity. A nil entry means the slot
// has never rendered successfully.
type slot struct {
	mu    sync.Mutex
	entry *Entry
}

type shard struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

// MemoryStore keeps one slot per instance identity, spread over shards. A shard
// lock is only held to find or create a slot; the slot lock is held for the whole
// compare-render-store sequence, so renders for different identities never wait
// on each other.
type MemoryStore struct {
	shards []shard

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
	clears   atomic.Int64
}

// NewMemoryStore creates a store with the given number of shards.
func NewMemoryStore(shards int) *MemoryStore {
	if shards <= 0 {
		shards = DefaultShards
	}
	s := &MemoryStore{shards: make([]shard, shards)}
	for i := range s.shards {
		s.shards[i].slots = make(map[int64]*slot)
	}
	return s
}

// shardIndex spreads sequential identities across n buckets.
func shardIndex(id int64, n int) int {
	h := uint64(id) * 0x9e3779b97f4a7c15
	return int((h >> 32) % uint64(n))
}

func (s *MemoryStore) shardFor(id int64) *shard {
	return &s.shards[shardIndex(id, len(s.shards))]
}

func (s *MemoryStore) slotFor(id int64) *slot {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sl, ok := sh.slots[id]
	if !ok {
		sl = &slot{}
		sh.slots[id] = sl
	}
	return sl
}

func (s *MemoryStore) GetOrRender(id int64, key Snapshot, render RenderFunc) (*Entry, bool, error) {
	sl := s.slotFor(id)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.entry != nil && sl.entry.Key == key {
		s.hits.Add(1)
		return sl.entry, true, nil
	}

	s.misses.Add(1)
	pm, err := render(key)
	if err != nil {
		s.failures.Add(1)
		return nil, false, err
	}

	sl.entry = &Entry{Key: key, Pixmap: pm}
	return sl.entry, false, nil
}

// Clear drops every slot. Renders already in flight finish into their detached
// slots and are not visible afterwards.
func (s *MemoryStore) Clear() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.slots = make(map[int64]*slot)
		sh.mu.Unlock()
	}
	s.clears.Add(1)
}

func (s *MemoryStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.slots)
		sh.mu.Unlock()
	}
	return n
}

func (s *MemoryStore) Stats() Stats {
	return Stats{
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
		Failures: s.failures.Load(),
		Clears:   s.clears.Load(),
		Slots:    s.Len(),
	}
}
