package tiburon

import (
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/dynatec/tiburon/pkg/gallery"
)

// Orientation is the layout class of a photo.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// OrientationOf returns the orientation implied by dimensions.
func OrientationOf(width, height int) Orientation {
	if width > height {
		return Horizontal
	}
	return Vertical
}

// ThumbMeta describes a thumbnail.
type ThumbMeta struct {
	X       int
	Y       int
	RelPath string
	Path    string
}

// Photo is a single gallery photo as listed in the manifest.
type Photo struct {
	Filename    string      `json:"filename"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Orientation Orientation `json:"orientation"`
	Format      string      `json:"format"`
	Size        int64       `json:"size"`
	Created     time.Time   `json:"created"`
	Modified    time.Time   `json:"modified"`
	Alt         string      `json:"alt,omitempty"`

	InPath      string               `json:"-"`
	Description string               `json:"-"`
	Resize      map[string]ThumbMeta `json:"-"`
}

// Validate checks the invariants every manifest record must hold.
func (p Photo) Validate() error {
	if p.Filename == "" {
		return fmt.Errorf("missing filename")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%s: invalid dimensions %dx%d", p.Filename, p.Width, p.Height)
	}
	if p.Size < 0 {
		return fmt.Errorf("%s: negative size %d", p.Filename, p.Size)
	}
	if p.Orientation != "" && p.Orientation != OrientationOf(p.Width, p.Height) {
		return fmt.Errorf("%s: orientation %q disagrees with %dx%d", p.Filename, p.Orientation, p.Width, p.Height)
	}
	return nil
}

// PhotoURL returns the URL path a photo is served under.
func PhotoURL(prefix string, filename string) string {
	return path.Join("/", prefix, url.PathEscape(filename))
}

// DefaultAlt is the alt text used when a photo carries no description.
func DefaultAlt(n int, o Orientation) string {
	return fmt.Sprintf("Citroën DS 23 Pallas Tiburón en boda — foto %d (%s)", n, o)
}

// Tiles converts photos into gallery tiles served under prefix.
func Tiles(prefix string, ps []Photo) []gallery.Tile {
	ts := make([]gallery.Tile, 0, len(ps))
	for _, p := range ps {
		ts = append(ts, gallery.Tile{
			Filename: p.Filename,
			URL:      PhotoURL(prefix, p.Filename),
			Width:    p.Width,
			Height:   p.Height,
		})
	}
	return ts
}
