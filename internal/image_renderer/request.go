package image_renderer

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"svgaux/internal/cache"
	"svgaux/internal/geometry"
)

const (
	MaxDimension = 8192
	MaxClip      = 8192
)

var DefaultColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Request carries the parameters of one render for one instance.
type Request struct {
	InstanceID     int64
	Path           string
	Width          uint32
	Height         uint32
	MaintainAspect bool
	Clip           geometry.Insets
	Color          color.Color
}

// Validate checks the ranges that the cache and geometry code rely on.
func (r Request) Validate() error {
	if r.Width < 1 || r.Width > MaxDimension {
		return fmt.Errorf("width %d out of range 1..%d", r.Width, MaxDimension)
	}
	if r.Height < 1 || r.Height > MaxDimension {
		return fmt.Errorf("height %d out of range 1..%d", r.Height, MaxDimension)
	}
	for name, v := range map[string]uint32{
		"clip_left":   r.Clip.Left,
		"clip_top":    r.Clip.Top,
		"clip_right":  r.Clip.Right,
		"clip_bottom": r.Clip.Bottom,
	} {
		if v > MaxClip {
			return fmt.Errorf("%s %d out of range 0..%d", name, v, MaxClip)
		}
	}
	return nil
}

// Snapshot reduces the request to its cache key. Alpha is dropped from the color.
func (r Request) Snapshot() cache.Snapshot {
	return cache.Snapshot{
		Path:           r.Path,
		Color:          reduceColor(r.Color),
		Width:          r.Width,
		Height:         r.Height,
		MaintainAspect: r.MaintainAspect,
		Clip:           r.Clip,
	}
}

func reduceColor(c color.Color) cache.RGB {
	if c == nil {
		c = DefaultColor
	}
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return cache.RGB{}
	}
	r, g, b := cc.RGB255()
	return cache.RGB{R: r, G: g, B: b}
}

// ParseColor parses "rrggbb", "#rrggbb" or the short "#rgb" form.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, err
	}
	return c.Clamped(), nil
}
