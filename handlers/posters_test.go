package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
)

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestPostersRejectsDisallowedURLs(t *testing.T) {
	handler := NewPostersHandler(afero.NewMemMapFs(), "cache", []string{"image.tmdb.org"})

	for _, raw := range []string{
		"",
		"http://image.tmdb.org/a.png",    // not https
		"https://evil.example.com/a.png", // wrong host
		"::bad::",
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/posters?url="+url.QueryEscape(raw), nil)
		handler.Serve(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("url %q: expected 400, got %d", raw, rec.Code)
		}
	}
}

func TestPostersFetchesAndCaches(t *testing.T) {
	var upstreamCalls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&upstreamCalls, 1)
		w.Write(pngBytes)
	}))
	defer upstream.Close()

	upstreamURL, _ := url.Parse(upstream.URL)
	handler := NewPostersHandler(afero.NewMemMapFs(), "cache", []string{upstreamURL.Host})

	// The handler only accepts https URLs; rewrite them onto the plain-http
	// test server inside the transport.
	raw := strings.Replace(upstream.URL, "http://", "https://", 1) + "/poster.png"
	handler.httpClient = &http.Client{Transport: rewriteToUpstream(upstream.URL)}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/posters?url="+url.QueryEscape(raw), nil)
		handler.Serve(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("pass %d: expected 200, got %d", i, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("pass %d: expected image/png, got %q", i, ct)
		}
	}

	if got := atomic.LoadInt32(&upstreamCalls); got != 1 {
		t.Fatalf("expected second request to come from cache, got %d upstream calls", got)
	}
}

// rewriteToUpstream redirects any request to the given base URL over http.
func rewriteToUpstream(base string) http.RoundTripper {
	target, _ := url.Parse(base)
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		return http.DefaultTransport.RoundTrip(req)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
