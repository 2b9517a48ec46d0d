package image_renderer

import (
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"svgaux/internal/cache"
	"svgaux/internal/compose"
	"svgaux/internal/geometry"
	"svgaux/internal/pixmap"
	"svgaux/internal/svgraster"
)

type Renderer struct {
	store  cache.Cache
	logger *zap.Logger
}

// Result borrows the cached buffer. Callers must not modify Pixmap.
type Result struct {
	Pixmap *pixmap.Pixmap
	Width  int
	Height int
	Hit    bool
}

func New(store cache.Cache, logger *zap.Logger) *Renderer {
	return &Renderer{
		store:  store,
		logger: logger,
	}
}

// Render returns the buffer for req, rendering only when the instance's cached
// snapshot differs. A request without a source path renders nothing and returns
// a nil result.
func (r *Renderer) Render(req Request) (*Result, error) {
	if req.Path == "" {
		return nil, nil
	}

	entry, hit, err := r.store.GetOrRender(req.InstanceID, req.Snapshot(), r.render)
	if err != nil {
		return nil, err
	}

	if hit {
		r.logger.Debug("Cache hit", zap.Int64("instance", req.InstanceID), zap.String("path", req.Path))
	}

	return &Result{
		Pixmap: entry.Pixmap,
		Width:  entry.Width(),
		Height: entry.Height(),
		Hit:    hit,
	}, nil
}

func (r *Renderer) ClearCache() {
	r.logger.Info("Clearing SVG caches")
	r.store.Clear()
}

func (r *Renderer) Stats() cache.Stats {
	return r.store.Stats()
}

func (r *Renderer) render(key cache.Snapshot) (*pixmap.Pixmap, error) {
	r.logger.Info("Rendering SVG file",
		zap.String("path", key.Path),
		zap.Stringer("color", key.Color),
		zap.Uint32("width", key.Width),
		zap.Uint32("height", key.Height),
		zap.Uint32("clip_top", key.Clip.Top),
		zap.Uint32("clip_bottom", key.Clip.Bottom),
		zap.Uint32("clip_left", key.Clip.Left),
		zap.Uint32("clip_right", key.Clip.Right),
	)

	scene, err := svgraster.Load(key.Path, svgraster.Stylesheet(key.Color.R, key.Color.G, key.Color.B))
	if err != nil {
		return nil, err
	}

	width, height := int(key.Width), int(key.Height)
	layout, err := geometry.Plan(scene.Size(), key.Clip, width, height, key.MaintainAspect)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Scaled SVG",
		zap.Int("canvas_width", layout.CanvasW),
		zap.Int("canvas_height", layout.CanvasH),
		zap.Float64("scale_x", layout.ScaleX),
		zap.Float64("scale_y", layout.ScaleY),
		zap.Bool("maintain_aspect_ratio", key.MaintainAspect),
	)

	canvas, err := scene.Rasterize(layout.Transform, layout.CanvasW, layout.CanvasH)
	if err != nil {
		return nil, err
	}

	out, err := compose.Fit(canvas, width, height)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Rendered SVG", zap.String("path", key.Path), zap.String("bytes", humanize.Bytes(uint64(out.Bytes()))))
	return out, nil
}
