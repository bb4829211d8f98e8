package tiburon

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

var ModTimeFormat = "20060102150405"

// ThumbOpts are thumbnail options.
type ThumbOpts struct {
	X       int
	Y       int
	Quality int
}

// Thumbnail names used by the templates.
const (
	TileThumb = "Tile"
	ViewThumb = "View"
)

var defaultThumbOpts = map[string]ThumbOpts{
	TileThumb: {X: 640, Quality: 82},
	ViewThumb: {X: 2048, Quality: 90},
}

// publish copies the original into the output photo directory and renders its thumbnails.
func publish(p Photo, outDir string, prefix string, opts map[string]ThumbOpts) (map[string]ThumbMeta, error) {
	fullDest := filepath.Join(outDir, prefix, p.Filename)
	klog.V(1).Infof("publishing %s -> %s", p.InPath, fullDest)

	sst, err := os.Stat(p.InPath)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	dst, err := os.Stat(fullDest)
	updated := false

	if err != nil {
		updated = true
		klog.V(1).Infof("updating %s: does not exist", fullDest)
	}

	if err == nil && sst.Size() != dst.Size() {
		updated = true
		klog.Infof("updating %s: size mismatch", fullDest)
	}

	if err == nil && sst.ModTime().After(dst.ModTime()) {
		klog.Infof("updating %s: source newer", fullDest)
		updated = true
	}

	if updated {
		if err := copy.Copy(p.InPath, fullDest); err != nil {
			return nil, fmt.Errorf("copy: %w", err)
		}
	}

	var img image.Image
	thumbs := map[string]ThumbMeta{}

	for name, t := range opts {
		relPath := thumbRelPath(p, prefix, t)
		fullPath := filepath.Join(outDir, relPath)

		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}

		st, err := os.Stat(fullPath)
		if err == nil && st.Size() > int64(128) && !updated {
			rt, err := readThumb(fullPath)
			if err == nil {
				rt.RelPath = relPath
				klog.V(1).Infof("found thumb: %+v", *rt)
				thumbs[name] = *rt
				continue
			}
			klog.Warningf("unable to read thumb: %v", err)
		}

		if img == nil {
			img, err = imgio.Open(p.InPath)
			if err != nil {
				return nil, fmt.Errorf("imgio.Open: %w", err)
			}
		}

		ct, err := createThumb(img, fullPath, t)
		if err != nil {
			return nil, fmt.Errorf("create thumb: %w", err)
		}

		ct.RelPath = relPath
		thumbs[name] = *ct
		klog.V(1).Infof("created thumb: %+v", ct)
	}

	return thumbs, nil
}

func createThumb(i image.Image, path string, t ThumbOpts) (*ThumbMeta, error) {
	klog.V(1).Infof("creating %dx%d thumb: %s - %+v", t.X, t.Y, path, i.Bounds())
	x := t.X
	y := t.Y

	if i.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("no Y for %+v", i.Bounds())
	}

	if i.Bounds().Dx() == 0 {
		return nil, fmt.Errorf("no X for %+v", i.Bounds())
	}

	// never upscale
	if x > i.Bounds().Dx() {
		x = i.Bounds().Dx()
	}
	if y > i.Bounds().Dy() {
		y = i.Bounds().Dy()
	}

	if x == 0 {
		scale := float64(i.Bounds().Dy()) / float64(y)
		x = int(float64(i.Bounds().Dx()) / scale)
	}

	if y == 0 {
		scale := float64(i.Bounds().Dx()) / float64(x)
		y = int(float64(i.Bounds().Dy()) / scale)
	}

	rimg := transform.Resize(i, x, y, transform.Lanczos)
	if err := imgio.Save(path, rimg, imgio.JPEGEncoder(t.Quality)); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	return &ThumbMeta{X: rimg.Bounds().Dx(), Y: rimg.Bounds().Dy(), Path: path}, nil
}

func readThumb(path string) (*ThumbMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode: %w", err)
	}

	return &ThumbMeta{X: ic.Width, Y: ic.Height, Path: path}, nil
}

// thumbRelPath returns the output-relative path of a thumbnail; the mod time busts caches.
func thumbRelPath(p Photo, prefix string, t ThumbOpts) string {
	ext := filepath.Ext(p.Filename)
	noExt := strings.TrimSuffix(p.Filename, ext)

	dimensions := ""
	if t.X != 0 {
		dimensions = fmt.Sprintf("x%d", t.X)
	}
	if t.Y != 0 {
		dimensions = fmt.Sprintf("y%d", t.Y)
	}

	newBase := fmt.Sprintf("%s@%s_%s.jpg", noExt, dimensions, p.Modified.Format(ModTimeFormat))
	return filepath.Join(prefix, "_", newBase)
}
