package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"svgaux/internal/config"
	"svgaux/internal/geometry"
	"svgaux/internal/image_list"
	"svgaux/internal/image_renderer"
	"svgaux/internal/preview"
	"svgaux/internal/svgraster"
)

const defaultSide = 100

type Handlers struct {
	config   *config.Config
	logger   *zap.Logger
	scanner  *image_list.Scanner
	renderer *image_renderer.Renderer
	encoder  preview.Encoder
}

func New(config *config.Config, logger *zap.Logger, scanner *image_list.Scanner, renderer *image_renderer.Renderer, encoder preview.Encoder) *Handlers {
	return &Handlers{
		config:   config,
		logger:   logger,
		scanner:  scanner,
		renderer: renderer,
		encoder:  encoder,
	}
}

// Router builds the full HTTP handler including middlewares.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", h.HandleHealthz)
	r.Get("/api/sources", h.HandleSources)
	r.Get("/api/sources/{id}", h.HandleSource)

	r.Get("/api/instances/{id}/render", h.HandleRender)
	r.Post("/api/instances/{id}/render", h.HandleRender)

	r.Post("/api/cache/clear", h.HandleCacheClear)
	r.Get("/api/cache/stats", h.HandleCacheStats)

	return gzhttp.GzipHandler(h.CORSMiddleware(h.RequestLoggingMiddleware(r)))
}

func (h *Handlers) RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		start := time.Now()

		ip := h.extractIP(r)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		wrapped.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		h.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("ip", ip),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Int64("bytes", wrapped.bytesWritten),
			zap.Int64("duration_ms", duration.Milliseconds()),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

func (h *Handlers) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigin := ""

		if h.config.AllowedOrigin != "" {
			allowedOrigin = h.config.AllowedOrigin
		} else {
			host := r.Host
			if origin == "" {
				allowedOrigin = "*"
			} else if strings.HasPrefix(origin, "http://"+host) || strings.HasPrefix(origin, "https://"+host) {
				allowedOrigin = origin
			}
		}

		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "X-Image-Width, X-Image-Height, X-Cache, X-Request-Id")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handlers) HandleSources(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("rescan") == "true" {
		if err := h.scanner.Scan(); err != nil {
			h.logger.Error("Failed to rescan sources", zap.Error(err))
			http.Error(w, "Failed to scan sources", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, h.scanner.GetSources())
}

func (h *Handlers) HandleSource(w http.ResponseWriter, r *http.Request) {
	source := h.scanner.GetSourceByID(chi.URLParam(r, "id"))
	if source == nil {
		http.Error(w, "Source not found", http.StatusNotFound)
		return
	}
	writeJSON(w, source)
}

func (h *Handlers) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	h.renderer.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.renderer.Stats())
}

func (h *Handlers) HandleRender(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid instance id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	name := r.Form.Get("path")
	if name == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	format, err := preview.ParseFormat(r.Form.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, err := parseRequest(r, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req.Path, err = h.scanner.ResolvePath(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.renderer.Render(req)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to render SVG", zap.Int64("instance", id), zap.String("path", req.Path), zap.Error(err))
		} else {
			h.logger.Warn("Rejected SVG render", zap.Int64("instance", id), zap.String("path", req.Path), zap.Error(err))
		}
		http.Error(w, err.Error(), status)
		return
	}

	data, err := h.encoder.Encode(result.Pixmap, format)
	if err != nil {
		h.logger.Error("Failed to encode preview", zap.String("format", string(format)), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cacheStatus := "miss"
	if result.Hit {
		cacheStatus = "hit"
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Image-Width", strconv.Itoa(result.Width))
	w.Header().Set("X-Image-Height", strconv.Itoa(result.Height))
	w.Header().Set("X-Cache", cacheStatus)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// StatusFor maps a render failure to an HTTP status code. Allocation
// failures and anything unrecognized are server errors.
func StatusFor(err error) int {
	var (
		ioErr      *svgraster.IOError
		parseErr   *svgraster.ParseError
		degenerate *geometry.DegenerateSizeError
	)

	switch {
	case errors.As(err, &ioErr):
		if errors.Is(err, fs.ErrNotExist) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	case errors.As(err, &parseErr), errors.As(err, &degenerate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func parseRequest(r *http.Request, id int64) (image_renderer.Request, error) {
	req := image_renderer.Request{
		InstanceID:     id,
		MaintainAspect: true,
		Color:          image_renderer.DefaultColor,
	}

	var err error
	if req.Width, err = formUint(r, "width", defaultSide); err != nil {
		return req, err
	}
	if req.Height, err = formUint(r, "height", defaultSide); err != nil {
		return req, err
	}
	if req.Clip.Top, err = formUint(r, "clip_top", 0); err != nil {
		return req, err
	}
	if req.Clip.Bottom, err = formUint(r, "clip_bottom", 0); err != nil {
		return req, err
	}
	if req.Clip.Left, err = formUint(r, "clip_left", 0); err != nil {
		return req, err
	}
	if req.Clip.Right, err = formUint(r, "clip_right", 0); err != nil {
		return req, err
	}

	if v := r.Form.Get("aspect"); v != "" {
		if req.MaintainAspect, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("invalid aspect: %s", v)
		}
	}

	if v := r.Form.Get("color"); v != "" {
		if req.Color, err = image_renderer.ParseColor(v); err != nil {
			return req, fmt.Errorf("invalid color: %s", v)
		}
	}

	return req, req.Validate()
}

func formUint(r *http.Request, name string, def uint32) (uint32, error) {
	v := r.Form.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, v)
	}
	return uint32(n), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Not for real production use due to potential spoofing
// but it's fine for a demo
func (h *Handlers) extractIP(r *http.Request) string {
	ip := r.Header.Get("X-Real-Ip")
	if ip != "" {
		return strings.Split(ip, ":")[0]
	}

	addr := r.RemoteAddr
	if addr != "" {
		return strings.Split(addr, ":")[0]
	}

	return "unknown"
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}
