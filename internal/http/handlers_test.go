package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"svgaux/internal/cache"
	"svgaux/internal/config"
	"svgaux/internal/geometry"
	"svgaux/internal/image_list"
	"svgaux/internal/image_renderer"
	"svgaux/internal/pixmap"
	"svgaux/internal/preview"
	"svgaux/internal/svgraster"
)

const wide = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100">
  <rect x="0" y="0" width="200" height="100" fill="currentColor"/>
</svg>`

type fakeEncoder struct{}

func (fakeEncoder) Encode(p *pixmap.Pixmap, format preview.Format) ([]byte, error) {
	if format == preview.FormatRaw {
		return p.Pix, nil
	}
	return []byte(fmt.Sprintf("%s:%dx%d", format, p.Width, p.Height)), nil
}

type fixture struct {
	dir     string
	handler http.Handler
	store   *cache.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wide.svg"), []byte(wide), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.svg"), []byte("<svg><g></svg>"), 0644))

	log := zap.NewNop()
	scanner := image_list.New(dir, log)
	require.NoError(t, scanner.Scan())

	store := cache.NewMemoryStore(4)
	renderer := image_renderer.New(store, log)
	cfg := &config.Config{DataDir: dir}

	h := New(cfg, log, scanner, renderer, fakeEncoder{})
	return &fixture{dir: dir, handler: h.Router(), store: store}
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRenderRaw(t *testing.T) {
	f := newFixture(t)
	target := "/api/instances/7/render?path=wide.svg&width=100&height=100&color=ff0000"

	rec := f.get(t, target)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "100", rec.Header().Get("X-Image-Width"))
	assert.Equal(t, "100", rec.Header().Get("X-Image-Height"))
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))

	body := rec.Body.Bytes()
	require.Len(t, body, 100*100*4)
	assert.Equal(t, []byte{0, 0, 0, 0}, body[0:4])
	off := (50*100 + 50) * 4
	assert.Equal(t, []byte{255, 0, 0, 255}, body[off:off+4])

	again := f.get(t, target)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "hit", again.Header().Get("X-Cache"))
	assert.Equal(t, body, again.Body.Bytes())
}

func TestRenderPostForm(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"path": {"wide.svg"}, "width": {"20"}, "height": {"10"}, "aspect": {"false"}}

	req := httptest.NewRequest(http.MethodPost, "/api/instances/1/render", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, rec.Body.Bytes(), 20*10*4)
}

func TestRenderEncodedFormat(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/instances/1/render?path=wide.svg&width=30&height=20&format=png")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png:30x20", rec.Body.String())
}

func TestRenderWithoutPath(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/instances/1/render?width=10&height=10")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, f.store.Len())
}

func TestRenderErrorStatuses(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing file", "path=nope.svg", http.StatusNotFound},
		{"malformed svg", "path=broken.svg", http.StatusUnprocessableEntity},
		{"clip consumes source", "path=wide.svg&clip_left=150&clip_right=60", http.StatusUnprocessableEntity},
		{"zero width", "path=wide.svg&width=0", http.StatusBadRequest},
		{"width too large", "path=wide.svg&width=9000", http.StatusBadRequest},
		{"negative height", "path=wide.svg&height=-1", http.StatusBadRequest},
		{"bad color", "path=wide.svg&color=xyz", http.StatusBadRequest},
		{"bad aspect", "path=wide.svg&aspect=maybe", http.StatusBadRequest},
		{"bad format", "path=wide.svg&format=gif", http.StatusBadRequest},
		{"escapes data dir", "path=../etc/passwd.svg", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.get(t, "/api/instances/3/render?"+tt.query)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := f.get(t, "/api/instances/abc/render?path=wide.svg")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheClearAndStats(t *testing.T) {
	f := newFixture(t)
	target := "/api/instances/1/render?path=wide.svg"

	require.Equal(t, http.StatusOK, f.get(t, target).Code)
	require.Equal(t, "hit", f.get(t, target).Header().Get("X-Cache"))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, "miss", f.get(t, target).Header().Get("X-Cache"))

	statsRec := f.get(t, "/api/cache/stats")
	require.Equal(t, http.StatusOK, statsRec.Code)

	var stats cache.Stats
	require.NoError(t, json.Unmarshal(statsRec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(1), stats.Clears)
	assert.Equal(t, 1, stats.Slots)
}

func TestSources(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "late.svg"), []byte(wide), 0644))

	var sources []image_list.SourceInfo
	rec := f.get(t, "/api/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sources))
	assert.Len(t, sources, 2)

	rec = f.get(t, "/api/sources?rescan=true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sources))
	require.Len(t, sources, 3)
	assert.Equal(t, "broken.svg", sources[0].Name)
	assert.NotEmpty(t, sources[0].Error)
	assert.Equal(t, "wide.svg", sources[2].Name)
	assert.Equal(t, 200.0, sources[2].Width)
}

func TestSourceByID(t *testing.T) {
	f := newFixture(t)

	var source image_list.SourceInfo
	rec := f.get(t, "/api/sources/"+image_list.SourceID("wide.svg"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &source))
	assert.Equal(t, "wide.svg", source.Name)
	assert.Equal(t, 100.0, source.Height)

	rec = f.get(t, "/api/sources/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/instances/1/render", nil)
	req.Header.Set("Origin", "http://"+req.Host)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://"+req.Host, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(&svgraster.IOError{Path: "a", Err: fs.ErrNotExist}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(&svgraster.IOError{Path: "a", Err: fs.ErrPermission}))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(&svgraster.ParseError{Path: "a", Err: errors.New("x")}))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(fmt.Errorf("plan: %w", &geometry.DegenerateSizeError{})))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(&pixmap.AllocationError{Width: 1 << 20, Height: 1}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("other")))
}
