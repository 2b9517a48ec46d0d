package warmup

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"svgaux/internal/image_renderer"
)

type Renderer interface {
	Render(req image_renderer.Request) (*image_renderer.Result, error)
}

type Report struct {
	Rendered int64
	Failed   int64
}

// Run renders reqs with at most workers renders in flight. A failed entry is
// logged and does not stop the others. Cancelling ctx stops scheduling.
func Run(ctx context.Context, renderer Renderer, reqs []image_renderer.Request, workers int, log *zap.Logger) (Report, error) {
	if workers <= 0 {
		workers = 1
	}

	log.Info("Starting cache warmup", zap.Int("entries", len(reqs)), zap.Int("workers", workers))

	var rendered, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, req := range reqs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := renderer.Render(req); err != nil {
				failed.Add(1)
				log.Warn("Warmup render failed",
					zap.Int64("instance", req.InstanceID),
					zap.String("path", req.Path),
					zap.Error(err),
				)
				return nil
			}
			rendered.Add(1)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	report := Report{Rendered: rendered.Load(), Failed: failed.Load()}
	log.Info("Cache warmup completed", zap.Int64("rendered", report.Rendered), zap.Int64("failed", report.Failed))
	return report, err
}
