package cache

import (
	"sync"
	"sync/atomic"
)

// NoopCache renders on every request and keeps nothing. Renders for the same
// identity still run one at a time.
type NoopCache struct {
	locks [DefaultShards]sync.Mutex

	misses   atomic.Int64
	failures atomic.Int64
}

func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (c *NoopCache) GetOrRender(id int64, key Snapshot, render RenderFunc) (*Entry, bool, error) {
	mu := &c.locks[shardIndex(id, len(c.locks))]
	mu.Lock()
	defer mu.Unlock()

	c.misses.Add(1)
	pm, err := render(key)
	if err != nil {
		c.failures.Add(1)
		return nil, false, err
	}
	return &Entry{Key: key, Pixmap: pm}, false, nil
}

func (c *NoopCache) Clear() {
}

func (c *NoopCache) Stats() Stats {
	return Stats{Misses: c.misses.Load(), Failures: c.failures.Load()}
}
