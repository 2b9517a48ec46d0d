package geometry

import (
	"fmt"
	"math"

	"github.com/srwiley/rasterx"
)

// Rounding noise from the scale division (3 * (7.0/3) == 7.000000000000001)
// must not add a whole pixel to the canvas.
const ceilTolerance = 1e-6

type Size struct {
	W float64
	H float64
}

// Insets are offsets removed from each edge of the source, in the px units of
// the intrinsic size.
type Insets struct {
	Left   uint32
	Top    uint32
	Right  uint32
	Bottom uint32
}

// DegenerateSizeError is returned when clipping or scaling leaves no pixels to render.
type DegenerateSizeError struct {
	Width  int
	Height int
}

func (e *DegenerateSizeError) Error() string {
	return fmt.Sprintf("degenerate canvas size %dx%d", e.Width, e.Height)
}

// Layout is the outcome of planning a render.
type Layout struct {
	Clipped   Size
	ScaleX    float64
	ScaleY    float64
	CanvasW   int
	CanvasH   int
	Transform rasterx.Matrix2D
}

// Plan maps the clipped region of a source with the given intrinsic size onto a
// canvas sized for a targetW x targetH output.
func Plan(intrinsic Size, clip Insets, targetW, targetH int, keepAspect bool) (Layout, error) {
	cw := math.Max(0, intrinsic.W-float64(clip.Left)-float64(clip.Right))
	ch := math.Max(0, intrinsic.H-float64(clip.Top)-float64(clip.Bottom))

	sx := float64(targetW) / cw
	sy := float64(targetH) / ch
	if keepAspect {
		s := math.Min(sx, sy)
		sx, sy = s, s
	}

	layout := Layout{
		Clipped: Size{W: cw, H: ch},
		ScaleX:  sx,
		ScaleY:  sy,
		CanvasW: canvasDim(cw, sx),
		CanvasH: canvasDim(ch, sy),
	}
	if layout.CanvasW == 0 || layout.CanvasH == 0 {
		return Layout{}, &DegenerateSizeError{Width: layout.CanvasW, Height: layout.CanvasH}
	}

	// translate the clip origin to (0, 0) first, then scale
	layout.Transform = rasterx.Identity.Scale(sx, sy).Translate(-float64(clip.Left), -float64(clip.Top))
	return layout, nil
}

func canvasDim(extent, scale float64) int {
	if extent <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 0
	}
	v := math.Ceil(extent*scale - ceilTolerance)
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(v)
}
