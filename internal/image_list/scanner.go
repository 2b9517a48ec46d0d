package image_list

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"svgaux/internal/svgraster"
)

// ErrOutsideDataDir is returned for paths that escape the data directory.
var ErrOutsideDataDir = errors.New("path is outside the data directory")

type SourceInfo struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Bytes  int64   `json:"bytes"`
	Error  string  `json:"error,omitempty"`
}

type Scanner struct {
	dataDir string
	logger  *zap.Logger

	mu      sync.RWMutex
	sources []SourceInfo
}

func New(dataDir string, logger *zap.Logger) *Scanner {
	return &Scanner{
		dataDir: dataDir,
		logger:  logger,
		sources: []SourceInfo{},
	}
}

// Scan walks the data directory and records every SVG file found. Files that
// fail to parse are listed with their error instead of being skipped.
func (s *Scanner) Scan() error {
	sources := []SourceInfo{}

	err := filepath.WalkDir(s.dataDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !IsSource(path) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("Error getting file info", zap.String("path", path), zap.Error(err))
			return nil
		}

		rel, err := filepath.Rel(s.dataDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		sources = append(sources, s.scanSource(path, rel, info))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read data directory: %w", err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	s.mu.Lock()
	s.sources = sources
	s.mu.Unlock()

	s.logger.Info("Scanned SVG sources", zap.String("data_dir", s.dataDir), zap.Int("count", len(sources)))
	return nil
}

func (s *Scanner) scanSource(path, rel string, info os.FileInfo) SourceInfo {
	source := SourceInfo{
		ID:    SourceID(rel),
		Name:  rel,
		Bytes: info.Size(),
	}

	scene, err := svgraster.Load(path, "")
	if err != nil {
		s.logger.Warn("Failed to scan SVG", zap.String("path", path), zap.Error(err))
		source.Error = err.Error()
		return source
	}

	size := scene.Size()
	source.Width = size.W
	source.Height = size.H

	s.logger.Debug("Found SVG",
		zap.String("name", rel),
		zap.String("size", humanize.Bytes(uint64(info.Size()))),
		zap.Float64("width", size.W),
		zap.Float64("height", size.H),
	)
	return source
}

func (s *Scanner) GetSources() []SourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SourceInfo, len(s.sources))
	copy(out, s.sources)
	return out
}

func (s *Scanner) GetSourceByID(id string) *SourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, src := range s.sources {
		if src.ID == id {
			return &src
		}
	}
	return nil
}

// ResolvePath maps a request path to a file inside the data directory.
// Relative paths are joined to the data directory. Absolute paths must already
// lie inside it.
func (s *Scanner) ResolvePath(name string) (string, error) {
	root, err := filepath.Abs(s.dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}

	var full string
	if filepath.IsAbs(name) {
		full = filepath.Clean(name)
	} else {
		full = filepath.Join(root, filepath.FromSlash(name))
	}

	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideDataDir
	}
	return full, nil
}

// IsSource reports whether path names an SVG document.
func IsSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".svg")
}

// SourceID derives a stable identifier from the path relative to the data
// directory.
func SourceID(rel string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("svg:"+rel)).String()
}
