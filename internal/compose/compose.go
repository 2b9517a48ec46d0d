package compose

import (
	"image"

	"golang.org/x/image/draw"

	"svgaux/internal/pixmap"
)

// Fit places canvas into an exactly width x height pixmap. A canvas that already
// has the target size is returned as is. Otherwise it is centered (floor) on a
// transparent background and cropped where it overflows.
func Fit(canvas *pixmap.Pixmap, width, height int) (*pixmap.Pixmap, error) {
	if canvas.Width == width && canvas.Height == height {
		return canvas, nil
	}

	target, err := pixmap.New(width, height)
	if err != nil {
		return nil, err
	}

	left, top := Offset(canvas.Width, canvas.Height, width, height)
	dst := target.Image()
	rect := image.Rect(left, top, left+canvas.Width, top+canvas.Height)
	draw.Draw(dst, rect, canvas.Image(), image.Point{}, draw.Src)

	return target, nil
}

// Offset returns where a canvas lands inside the target.
func Offset(canvasW, canvasH, width, height int) (left, top int) {
	return max(0, (width-canvasW)/2), max(0, (height-canvasH)/2)
}
