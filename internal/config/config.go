package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port            int    `env:"PORT" envDefault:"8080"`
	DataDir         string `env:"DATA_DIR" envDefault:"/data"`
	CacheType       string `env:"CACHE" envDefault:"memory"`
	CacheShards     int    `env:"CACHE_SHARDS" envDefault:"32"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"json"`
	AllowedOrigin   string `env:"ALLOWED_ORIGIN"`
	WarmupFile      string `env:"WARMUP_FILE"`
	WarmupWorkers   int    `env:"WARMUP_WORKERS" envDefault:"1"`
	WatchSources    bool   `env:"WATCH_SOURCES" envDefault:"false"`
	VipsMaxCacheMB  int    `env:"VIPS_MAX_CACHE_MB" envDefault:"64"`
	VipsConcurrency int    `env:"VIPS_CONCURRENCY" envDefault:"1"`
	PreviewQuality  int    `env:"PREVIEW_QUALITY" envDefault:"90"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.CacheShards <= 0 {
		return nil, fmt.Errorf("CACHE_SHARDS must be positive, got %d", cfg.CacheShards)
	}
	if cfg.WarmupWorkers <= 0 {
		cfg.WarmupWorkers = 1
	}
	if cfg.PreviewQuality < 1 || cfg.PreviewQuality > 100 {
		return nil, fmt.Errorf("PREVIEW_QUALITY must be in 1..100, got %d", cfg.PreviewQuality)
	}

	return &cfg, nil
}
