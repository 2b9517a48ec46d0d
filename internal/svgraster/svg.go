package svgraster

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"svgaux/internal/geometry"
	"svgaux/internal/pixmap"
)

// Scene is a parsed SVG document ready to be rasterized.
type Scene struct {
	icon *oksvg.SvgIcon
	size geometry.Size
	vp   viewport
}

// Load reads and parses the SVG file at path, applying stylesheet.
func Load(path, stylesheet string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return Parse(data, path, stylesheet)
}

// Parse parses SVG bytes. Elements using currentColor take the color that
// stylesheet declares for the document root.
func Parse(data []byte, path, stylesheet string) (*Scene, error) {
	current, err := CurrentColor(stylesheet)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	vp, err := readViewport(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	icon, err := oksvg.ReadReplacingCurrentColor(bytes.NewReader(data), current, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return &Scene{
		icon: icon,
		size: intrinsicSize(vp, icon.ViewBox.W, icon.ViewBox.H),
		vp:   vp,
	}, nil
}

// intrinsicSize resolves the viewport from the root width/height. A missing
// dimension follows the viewBox aspect ratio; with neither, the viewBox extent
// is used.
func intrinsicSize(vp viewport, vbW, vbH float64) geometry.Size {
	w, h := vp.width, vp.height
	switch {
	case w > 0 && h > 0:
	case w > 0 && vbW > 0:
		h = w * vbH / vbW
	case h > 0 && vbH > 0:
		w = h * vbW / vbH
	default:
		w, h = vbW, vbH
	}
	return geometry.Size{W: w, H: h}
}

// Size returns the intrinsic size in px, from the root width and height.
func (s *Scene) Size() geometry.Size {
	return s.size
}

// viewBoxTransform maps viewBox units onto the viewport, centering the
// viewBox unless preserveAspectRatio is "none". Without a viewBox, user units
// are px.
func (s *Scene) viewBoxTransform() rasterx.Matrix2D {
	vb := s.icon.ViewBox
	if !s.vp.viewBox || vb.W <= 0 || vb.H <= 0 {
		return rasterx.Identity
	}

	kx, ky := s.size.W/vb.W, s.size.H/vb.H
	var ox, oy float64
	if !s.vp.stretch {
		k := math.Min(kx, ky)
		ox = (s.size.W - vb.W*k) / 2
		oy = (s.size.H - vb.H*k) / 2
		kx, ky = k, k
	}
	return rasterx.Identity.Translate(ox, oy).Scale(kx, ky).Translate(-vb.X, -vb.Y)
}

// Rasterize draws the scene under m into a new width x height canvas. m maps
// viewport coordinates, in the units of Size, to canvas pixels.
func (s *Scene) Rasterize(m rasterx.Matrix2D, width, height int) (*pixmap.Pixmap, error) {
	canvas, err := pixmap.New(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate canvas: %w", err)
	}

	icon := *s.icon
	icon.Transform = m.Mult(s.viewBoxTransform())

	img := canvas.Image()
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return canvas, nil
}
