package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cshum/vipsgen/vips"
	"go.uber.org/zap"

	"svgaux/internal/cache"
	"svgaux/internal/config"
	httphandlers "svgaux/internal/http"
	"svgaux/internal/image_list"
	"svgaux/internal/image_renderer"
	"svgaux/internal/logger"
	"svgaux/internal/preview"
	"svgaux/internal/warmup"
	"svgaux/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	vipsConfig := &vips.Config{
		ConcurrencyLevel: cfg.VipsConcurrency,
		MaxCacheMem:      cfg.VipsMaxCacheMB * 1024 * 1024, // Convert MB to bytes
		MaxCacheFiles:    0,                                // Disable disk cache
		MaxCacheSize:     0,                                // Disable disk cache
		ReportLeaks:      false,
		CacheTrace:       false,
		VectorEnabled:    true,
	}

	vips.SetLogging(func(domain string, level vips.LogLevel, message string) {
		if level >= vips.LogLevelError {
			log.Error("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
		} else if level >= vips.LogLevelWarning {
			log.Warn("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
		}
	}, vips.LogLevelError)

	vips.Startup(vipsConfig)
	defer vips.Shutdown()

	log.Info("VIPS initialized",
		zap.Int("max_cache_mb", cfg.VipsMaxCacheMB),
		zap.Int("concurrency", cfg.VipsConcurrency),
	)

	log.Info("Starting svgaux server",
		zap.Int("port", cfg.Port),
		zap.String("data_dir", cfg.DataDir),
	)

	scanner := image_list.New(cfg.DataDir, log.Named("sources"))
	if err := scanner.Scan(); err != nil {
		log.Warn("Initial scan failed", zap.Error(err))
	}

	store, err := cache.NewCache(cfg.CacheType, cfg.CacheShards, log)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	renderer := image_renderer.New(store, log.Named("renderer"))
	encoder := preview.NewVipsEncoder(cfg.PreviewQuality, log.Named("preview"))

	handlers := httphandlers.New(cfg, log, scanner, renderer, encoder)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.WarmupFile != "" {
		go warmupCache(ctx, cfg, scanner, renderer, log.Named("warmup"))
	}

	if cfg.WatchSources {
		watcher, err := watch.New(cfg.DataDir, func(path string) {
			renderer.ClearCache()
			if err := scanner.Scan(); err != nil {
				log.Warn("Rescan after change failed", zap.String("path", path), zap.Error(err))
			}
		}, log.Named("watch"))
		if err != nil {
			log.Error("Failed to watch sources", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handlers.Router(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.Int("port", cfg.Port))

	<-ctx.Done()

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}

func warmupCache(ctx context.Context, cfg *config.Config, scanner *image_list.Scanner, renderer *image_renderer.Renderer, log *zap.Logger) {
	manifest, err := warmup.Load(cfg.WarmupFile)
	if err != nil {
		log.Error("Failed to load warmup manifest", zap.Error(err))
		return
	}

	reqs, err := manifest.Requests(scanner.ResolvePath)
	if err != nil {
		log.Error("Invalid warmup manifest", zap.Error(err))
		return
	}

	if _, err := warmup.Run(ctx, renderer, reqs, cfg.WarmupWorkers, log); err != nil {
		log.Warn("Warmup interrupted", zap.Error(err))
	}
}
