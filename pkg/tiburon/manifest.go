package tiburon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"k8s.io/klog/v2"
)

// ManifestFetchError means the photo list could not be retrieved or decoded.
type ManifestFetchError struct {
	Source string
	Err    error
}

func (e *ManifestFetchError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Source, e.Err)
}

func (e *ManifestFetchError) Unwrap() error { return e.Err }

// ReadManifest decodes and validates a manifest.
func ReadManifest(r io.Reader) ([]Photo, error) {
	var ps []Photo
	if err := json.NewDecoder(r).Decode(&ps); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i := range ps {
		if err := ps[i].Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if ps[i].Orientation == "" {
			ps[i].Orientation = OrientationOf(ps[i].Width, ps[i].Height)
		}
	}
	return ps, nil
}

// WriteManifest writes photos as an indented JSON manifest.
func WriteManifest(path string, ps []*Photo) error {
	if ps == nil {
		ps = []*Photo{}
	}
	bs, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	klog.V(1).Infof("writing manifest with %d photos to %s", len(ps), path)
	return os.WriteFile(path, bs, 0o644)
}

// ReadManifestFile reads a manifest from disk.
func ReadManifestFile(path string) ([]Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ManifestFetchError{Source: path, Err: err}
	}
	defer f.Close()

	ps, err := ReadManifest(f)
	if err != nil {
		return nil, &ManifestFetchError{Source: path, Err: err}
	}
	return ps, nil
}

// LoadManifest fetches a manifest over HTTP.
func LoadManifest(ctx context.Context, client *http.Client, url string) ([]Photo, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ManifestFetchError{Source: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ManifestFetchError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ManifestFetchError{Source: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	ps, err := ReadManifest(resp.Body)
	if err != nil {
		return nil, &ManifestFetchError{Source: url, Err: err}
	}
	return ps, nil
}
