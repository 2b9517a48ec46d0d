package preview

import (
	"fmt"

	"github.com/cshum/vipsgen/vips"
	"go.uber.org/zap"

	"svgaux/internal/pixmap"
)

// VipsEncoder encodes previews with libvips. vips must be started by the caller.
type VipsEncoder struct {
	quality int
	logger  *zap.Logger
}

func NewVipsEncoder(quality int, logger *zap.Logger) *VipsEncoder {
	return &VipsEncoder{
		quality: quality,
		logger:  logger,
	}
}

func (e *VipsEncoder) Encode(p *pixmap.Pixmap, format Format) ([]byte, error) {
	if format == FormatRaw {
		return p.Pix, nil
	}

	image, err := vips.NewImageFromMemory(Straight(p), p.Width, p.Height, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer: %w", err)
	}
	defer image.Close()

	var data []byte
	switch format {
	case FormatPNG:
		opts := vips.DefaultPngsaveBufferOptions()
		opts.Compression = 6
		data, err = image.PngsaveBuffer(opts)
	case FormatWebP:
		opts := vips.DefaultWebpsaveBufferOptions()
		opts.Q = e.quality
		data, err = image.WebpsaveBuffer(opts)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export: %w", err)
	}

	e.logger.Debug("Encoded preview",
		zap.String("format", string(format)),
		zap.Int("width", p.Width),
		zap.Int("height", p.Height),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}
