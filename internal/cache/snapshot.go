package cache

import (
	"fmt"

	"svgaux/internal/geometry"
	"svgaux/internal/pixmap"
)

type RGB struct {
	R uint8
	G uint8
	B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Snapshot holds every parameter that affects a rendered buffer. It is the cache
// key: two snapshots are equal iff all fields are equal.
type Snapshot struct {
	Path           string
	Color          RGB
	Width          uint32
	Height         uint32
	MaintainAspect bool
	Clip           geometry.Insets
}

// Entry is a rendered buffer together with the snapshot that produced it.
type Entry struct {
	Key    Snapshot
	Pixmap *pixmap.Pixmap
}

func (e *Entry) Width() int  { return e.Pixmap.Width }
func (e *Entry) Height() int { return e.Pixmap.Height }
func (e *Entry) Pix() []byte { return e.Pixmap.Pix }
