// Package tiburon builds the wedding car rental site from a directory of photos.
package tiburon

// Config holds configuration for tiburon.
type Config struct {
	Thumbnails   map[string]ThumbOpts
	InDir        string
	OutDir       string
	SiteURL      string
	PhotoPrefix  string
	ContentPath  string
	HeroFilename string
	PreviewCount int
	BatchSize    int
	NoExif       bool
}

// Defaults for unset Config fields.
const (
	DefaultPhotoPrefix  = "photos"
	DefaultPreviewCount = 8
	DefaultBatchSize    = 6
	ManifestName        = "photos.manifest.json"
)

// Prefix returns the URL path prefix photos are published and served under.
func (c *Config) Prefix() string {
	if c.PhotoPrefix == "" {
		return DefaultPhotoPrefix
	}
	return c.PhotoPrefix
}

func (c *Config) thumbOpts() map[string]ThumbOpts {
	if len(c.Thumbnails) == 0 {
		return defaultThumbOpts
	}
	return c.Thumbnails
}
