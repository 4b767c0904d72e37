package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"github.com/spf13/afero"
)

const maxPosterBytes = 5 << 20 // 5 MiB

// PostersHandler proxies and caches poster images so the browser talks to
// one origin and repeat views don't refetch from TMDb.
type PostersHandler struct {
	fs           afero.Fs
	cacheDir     string
	allowedHosts map[string]bool
	httpClient   *http.Client
}

// NewPostersHandler creates a poster proxy caching into cacheDir.
func NewPostersHandler(fs afero.Fs, cacheDir string, allowedHosts []string) *PostersHandler {
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[h] = true
	}
	return &PostersHandler{
		fs:           fs,
		cacheDir:     cacheDir,
		allowedHosts: hosts,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
	}
}

// Register attaches the poster route to the router.
func (h *PostersHandler) Register(r *mux.Router) {
	r.HandleFunc("/posters", h.Serve).Methods(http.MethodGet)
}

// Serve returns the poster at ?url=, from cache when present.
// GET /posters?url=https://image.tmdb.org/t/p/w500/...
func (h *PostersHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		jsonError(w, "url parameter is required", http.StatusBadRequest)
		return
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme != "https" || !h.allowedHosts[parsed.Host] {
		jsonError(w, "url must be https on an allowed image host", http.StatusBadRequest)
		return
	}

	sum := sha256.Sum256([]byte(rawURL))
	cachePath := filepath.Join(h.cacheDir, hex.EncodeToString(sum[:]))

	if data, err := afero.ReadFile(h.fs, cachePath); err == nil && len(data) > 0 {
		h.write(w, data)
		return
	}

	data, err := h.fetch(rawURL)
	if err != nil {
		slog.Warn("posters.fetch.failed", "url", rawURL, "error", err)
		jsonError(w, "Failed to fetch poster", http.StatusBadGateway)
		return
	}

	if err := h.fs.MkdirAll(h.cacheDir, 0o755); err == nil {
		// Cache write failures are not fatal; the image still gets served.
		if err := afero.WriteFile(h.fs, cachePath, data, 0o644); err != nil {
			slog.Warn("posters.cache.write_failed", "path", cachePath, "error", err)
		}
	}

	h.write(w, data)
}

func (h *PostersHandler) fetch(rawURL string) ([]byte, error) {
	resp, err := h.httpClient.Get(rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPosterBytes))
}

func (h *PostersHandler) write(w http.ResponseWriter, data []byte) {
	contentType := mimetype.Detect(data).String()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
