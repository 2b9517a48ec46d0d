package pixmap

import (
	"fmt"
	"image"
)

// MaxSide bounds either dimension of a pixmap. Targets are limited to 8192 upstream,
// canvases can exceed that only through rounding.
const MaxSide = 1 << 14

// AllocationError reports a pixmap that could not be allocated at the requested size.
type AllocationError struct {
	Width  int
	Height int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("failed to create pixmap with size %dx%d", e.Width, e.Height)
}

// Pixmap is an RGBA8 buffer with premultiplied alpha and a tight stride of Width*4.
type Pixmap struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a fully transparent pixmap.
func New(width, height int) (*Pixmap, error) {
	if width <= 0 || height <= 0 || width > MaxSide || height > MaxSide {
		return nil, &AllocationError{Width: width, Height: height}
	}

	return &Pixmap{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}, nil
}

// Image returns an image.RGBA sharing the pixmap's memory.
func (p *Pixmap) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    p.Pix,
		Stride: p.Width * 4,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}

// Bytes returns the pixmap size in bytes.
func (p *Pixmap) Bytes() int {
	return len(p.Pix)
}
