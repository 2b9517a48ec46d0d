package cache

import "svgaux/internal/pixmap"

// RenderFunc produces the buffer for a snapshot. It is only called on a cache miss.
type RenderFunc func(key Snapshot) (*pixmap.Pixmap, error)

type Cache interface {
	// GetOrRender returns the entry for id, rendering it first when the stored
	// snapshot differs from key. A failed render leaves the slot untouched.
	GetOrRender(id int64, key Snapshot, render RenderFunc) (entry *Entry, hit bool, err error)
	Clear()
	Stats() Stats
}

type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Failures int64 `json:"failures"`
	Clears   int64 `json:"clears"`
	Slots    int   `json:"slots"`
}
