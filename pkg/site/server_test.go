package site

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynatec/tiburon/pkg/contact"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func newTestSite(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), "<h1>inicio</h1>")
	writeFile(t, filepath.Join(root, "404.html"), "<h1>Página no encontrada</h1>")
	writeFile(t, filepath.Join(root, "galeria", "index.html"), "<h1>galería</h1>")
	writeFile(t, filepath.Join(root, "photos", "boda 1.jpg"), "\xFF\xD8\xFF\xDB")
	writeFile(t, filepath.Join(root, "photos.manifest.json"), "[]")
	return New(root, "photos", contact.NewHandler(contact.LogSink{}, nil), opts...), root
}

func TestHealth(t *testing.T) {
	s, _ := newTestSite(t)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, 200, rr.Code)
	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestStaticPages(t *testing.T) {
	s, _ := newTestSite(t)
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), "inicio")
	assert.Empty(t, rr.Header().Get("Cache-Control"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/galeria/", nil))
	assert.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), "galería")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/photos.manifest.json", nil))
	assert.Equal(t, 200, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestPhotoCacheHeaders(t *testing.T) {
	s, _ := newTestSite(t)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/photos/boda%201.jpg", nil))

	require.Equal(t, 200, rr.Code)
	assert.Equal(t, photoCacheControl, rr.Header().Get("Cache-Control"))
	assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
}

func TestNotFound(t *testing.T) {
	s, root := newTestSite(t)
	h := s.Handler()

	for _, p := range []string{"/nope", "/photos/missing.jpg", "/../etc/passwd"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", p, nil))
		assert.Equal(t, 404, rr.Code, p)
		assert.Contains(t, rr.Body.String(), "Página no encontrada", p)
	}

	require.NoError(t, os.Remove(filepath.Join(root, "404.html")))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, 404, rr.Code)
}

func TestContactRoute(t *testing.T) {
	s, _ := newTestSite(t)
	h := s.Handler()

	rr := httptest.NewRecorder()
	body := `{"name":"Ana","email":"not-an-email","eventDate":"2026-06-20","location":"Madrid"}`
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/contact", strings.NewReader(body)))
	assert.Equal(t, 400, rr.Code)
	assert.Contains(t, rr.Body.String(), contact.MsgEmail)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	root := t.TempDir()
	s := New(root, "photos", contact.NewHandler(contact.LogSink{}, reg), WithGatherer(reg))
	h := s.Handler()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/contact", strings.NewReader(`{}`)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), `tiburon_contact_submissions_total{outcome="invalid"} 1`)
}

func TestLiveReload(t *testing.T) {
	rl := NewReloader()
	s, _ := newTestSite(t, WithReloader(rl))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/_/livereload", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rl.Broadcast()
	typ, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Equal(t, "reload", string(msg))
}
