// Package preload warms image caches ahead of display.
package preload

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"
)

// Loader performs the underlying fetch of one image.
type Loader interface {
	Load(ctx context.Context, url string) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string) error

func (f LoaderFunc) Load(ctx context.Context, url string) error { return f(ctx, url) }

// LoadError reports that a single image could not be loaded.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load image: %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Registry remembers which URLs have been loaded and collapses concurrent
// requests for the same URL into a single fetch.
//
// A URL moves from not-started to in-flight to completed and never back,
// except that a failed fetch returns it to not-started.
type Registry struct {
	loader  Loader
	metrics *Metrics

	group singleflight.Group

	mu     sync.RWMutex
	loaded map[string]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records registry activity in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry returns an empty registry that fetches through l.
func NewRegistry(l Loader, opts ...Option) *Registry {
	r := &Registry{
		loader: l,
		loaded: map[string]struct{}{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Request loads url unless it is already loaded or loading. Callers that
// arrive while a fetch is in flight wait for it and share its outcome.
func (r *Registry) Request(ctx context.Context, url string) error {
	r.metrics.request()
	if r.IsPreloaded(url) {
		return nil
	}

	ch := r.group.DoChan(url, func() (any, error) {
		// a flight that finished between our lookup and DoChan already loaded it
		if r.IsPreloaded(url) {
			return nil, nil
		}

		klog.V(2).Infof("loading %s", url)
		err := r.loader.Load(context.WithoutCancel(ctx), url)
		r.metrics.load(err)
		if err != nil {
			return nil, &LoadError{URL: url, Err: err}
		}

		r.mu.Lock()
		r.loaded[url] = struct{}{}
		r.mu.Unlock()
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsPreloaded reports whether url has completed loading.
func (r *Registry) IsPreloaded(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.loaded[url]
	return ok
}

// Len returns the number of completed URLs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loaded)
}
