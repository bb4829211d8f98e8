// Package site provides the HTTP server for a rendered site.
package site

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/dynatec/tiburon/pkg/contact"
)

// photoCacheControl lets browsers keep photos forever; thumbnails carry the mod time in their names.
const photoCacheControl = "public, max-age=31536000, immutable"

// Server serves a rendered site directory.
type Server struct {
	path    string
	prefix  string
	contact http.Handler
	reload  *Reloader
	gather  prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithReloader enables the live reload endpoint.
func WithReloader(r *Reloader) Option { return func(s *Server) { s.reload = r } }

// WithGatherer exposes metrics from g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option { return func(s *Server) { s.gather = g } }

// New creates a new server for the site in path with photos under prefix.
func New(path string, prefix string, ch *contact.Handler, opts ...Option) *Server {
	s := &Server{
		path:    path,
		prefix:  prefix,
		contact: ch,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the site's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", HealthHandler())
	r.Post("/api/contact", s.contact.ServeHTTP)
	if s.gather != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}
	if s.reload != nil {
		r.Get("/_/livereload", s.reload.ServeHTTP)
	}

	r.Handle("/*", s.StaticHandler())
	return r
}

// HealthHandler returns a simple health check endpoint.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}
}

// StaticHandler serves files from the site directory, with 404.html for missing paths.
func (s *Server) StaticHandler() http.Handler {
	fs := http.FileServer(http.Dir(s.path))
	photos := "/" + strings.Trim(s.prefix, "/") + "/"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean("/" + r.URL.Path)
		if !s.exists(p) {
			s.notFound(w)
			return
		}
		if strings.HasPrefix(p, photos) {
			w.Header().Set("Cache-Control", photoCacheControl)
		}
		fs.ServeHTTP(w, r)
	})
}

func (s *Server) exists(p string) bool {
	fi, err := os.Stat(filepath.Join(s.path, filepath.FromSlash(p)))
	if err != nil {
		return false
	}
	if fi.IsDir() {
		_, err = os.Stat(filepath.Join(s.path, filepath.FromSlash(p), "index.html"))
		return err == nil
	}
	return true
}

func (s *Server) notFound(w http.ResponseWriter) {
	bs, err := os.ReadFile(filepath.Join(s.path, "404.html"))
	if err != nil {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(bs)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		klog.V(1).Infof("%s %s -> %d (%d bytes)", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten())
	})
}
