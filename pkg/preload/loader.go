package preload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPLoader fetches images from a site and discards the bytes, leaving
// any caches along the way warm.
type HTTPLoader struct {
	Base   *url.URL
	Client *http.Client
}

// NewHTTPLoader returns a loader resolving URL paths against base.
func NewHTTPLoader(base string) (*HTTPLoader, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base: %w", err)
	}
	return &HTTPLoader{
		Base:   u,
		Client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Load fetches ref, which may be absolute or relative to the base URL.
func (l *HTTPLoader) Load(ctx context.Context, ref string) error {
	u, err := url.Parse(ref)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if l.Base != nil {
		u = l.Base.ResolveReference(u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "image/*")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return nil
}
