package compose

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svgaux/internal/pixmap"
)

func rowOpaque(p *pixmap.Pixmap, y int) bool {
	for x := 0; x < p.Width; x++ {
		if p.Pix[(y*p.Width+x)*4+3] != 0 {
			return true
		}
	}
	return false
}

func solid(t *testing.T, w, h int) *pixmap.Pixmap {
	t.Helper()
	p, err := pixmap.New(w, h)
	require.NoError(t, err)
	img := p.Image()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	return p
}

func TestFitExactSizeReturnsCanvas(t *testing.T) {
	canvas := solid(t, 100, 100)

	out, err := Fit(canvas, 100, 100)
	require.NoError(t, err)
	assert.Same(t, canvas, out)
}

func TestFitCentersVertically(t *testing.T) {
	out, err := Fit(solid(t, 100, 50), 100, 100)
	require.NoError(t, err)

	require.Equal(t, 100, out.Width)
	require.Equal(t, 100, out.Height)
	require.Len(t, out.Pix, 100*100*4)
	for y := 0; y < 100; y++ {
		assert.Equal(t, y >= 25 && y < 75, rowOpaque(out, y), "row %d", y)
	}
}

func TestFitCentersHorizontallyWithFloor(t *testing.T) {
	out, err := Fit(solid(t, 4, 3), 9, 3)
	require.NoError(t, err)

	img := out.Image()
	for x := 0; x < 9; x++ {
		_, _, _, a := img.At(x, 1).RGBA()
		assert.Equal(t, x >= 2 && x < 6, a != 0, "column %d", x)
	}
}

func TestFitCropsOversizedCanvas(t *testing.T) {
	out, err := Fit(solid(t, 12, 5), 10, 10)
	require.NoError(t, err)

	assert.Equal(t, 10, out.Width)
	assert.Equal(t, 10, out.Height)
	assert.True(t, rowOpaque(out, 2))
	assert.False(t, rowOpaque(out, 1))
	assert.True(t, rowOpaque(out, 6))
	assert.False(t, rowOpaque(out, 7))
}

func TestOffset(t *testing.T) {
	left, top := Offset(100, 50, 100, 100)
	assert.Equal(t, 0, left)
	assert.Equal(t, 25, top)

	left, top = Offset(120, 51, 100, 100)
	assert.Equal(t, 0, left)
	assert.Equal(t, 24, top)
}
