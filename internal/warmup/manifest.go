package warmup

import (
	"fmt"
	"image/color"
	"os"

	"gopkg.in/yaml.v3"

	"svgaux/internal/geometry"
	"svgaux/internal/image_renderer"
)

type Clip struct {
	Top    uint32 `yaml:"top"`
	Bottom uint32 `yaml:"bottom"`
	Left   uint32 `yaml:"left"`
	Right  uint32 `yaml:"right"`
}

type Entry struct {
	ID             int64  `yaml:"id"`
	Path           string `yaml:"path"`
	Width          uint32 `yaml:"width"`
	Height         uint32 `yaml:"height"`
	Color          string `yaml:"color"`
	MaintainAspect *bool  `yaml:"maintain_aspect"`
	Clip           Clip   `yaml:"clip"`
}

type Manifest struct {
	Entries []Entry `yaml:"entries"`
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read warmup manifest: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse warmup manifest: %w", err)
	}
	return &m, nil
}

// Requests converts the manifest into render requests. resolve maps each entry
// path to a file inside the data directory.
func (m *Manifest) Requests(resolve func(string) (string, error)) ([]image_renderer.Request, error) {
	reqs := make([]image_renderer.Request, 0, len(m.Entries))
	for i, e := range m.Entries {
		path, err := resolve(e.Path)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Path, err)
		}

		var c color.Color = image_renderer.DefaultColor
		if e.Color != "" {
			if c, err = image_renderer.ParseColor(e.Color); err != nil {
				return nil, fmt.Errorf("entry %d (%s): %w", i, e.Path, err)
			}
		}

		keepAspect := true
		if e.MaintainAspect != nil {
			keepAspect = *e.MaintainAspect
		}

		req := image_renderer.Request{
			InstanceID:     e.ID,
			Path:           path,
			Width:          e.Width,
			Height:         e.Height,
			MaintainAspect: keepAspect,
			Clip: geometry.Insets{
				Left:   e.Clip.Left,
				Top:    e.Clip.Top,
				Right:  e.Clip.Right,
				Bottom: e.Clip.Bottom,
			},
			Color: c,
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Path, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
