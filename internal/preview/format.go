package preview

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"

	"svgaux/internal/pixmap"
)

type Format string

const (
	FormatRaw  Format = "raw"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Encoder turns a rendered buffer into an image file.
type Encoder interface {
	Encode(p *pixmap.Pixmap, format Format) ([]byte, error)
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatRaw, nil
	case FormatRaw, FormatPNG, FormatWebP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: raw, png, webp)", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Straight converts the premultiplied buffer to straight alpha, the layout
// image encoders expect.
func Straight(p *pixmap.Pixmap) []byte {
	src := p.Image()
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	return dst.Pix
}
