// manifest copies photos into a public directory and writes their manifest, without rendering pages.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/dynatec/tiburon/pkg/tiburon"
)

var (
	dryRun = flag.Bool("n", false, "dry-run mode, print the manifest instead of writing it")
	inDir  = flag.String("in", "", "Location of input photo directory")
	pubDir = flag.String("public", "public", "public directory receiving photos and the manifest")
	noExif = flag.Bool("noexif", false, "read image headers instead of running exiftool")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *inDir == "" {
		klog.Exitf("--in is a required flag")
	}

	var w io.Writer
	if *dryRun {
		w = os.Stdout
	}
	if _, err := run(*inDir, *pubDir, *noExif, w); err != nil {
		klog.Exitf("%v", err)
	}
}

// run publishes the photos under in to pub. With a non-nil dry writer it only
// lists what would be written.
func run(in string, pub string, noExif bool, dry io.Writer) ([]*tiburon.Photo, error) {
	found, err := tiburon.Find(in, noExif)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	klog.Infof("found %d photos to process", len(found))

	ps := tiburon.Dedupe(found)
	tiburon.Arrange(ps)

	if dry != nil {
		for _, p := range ps {
			fmt.Fprintf(dry, "%s\t%dx%d\t%s\t%s\n", p.Filename, p.Width, p.Height, p.Orientation, p.Created.Format("2006-01-02"))
		}
		return ps, nil
	}

	dest := filepath.Join(pub, tiburon.DefaultPhotoPrefix)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	for _, p := range ps {
		if err := copy.Copy(p.InPath, filepath.Join(dest, p.Filename)); err != nil {
			return nil, fmt.Errorf("copy %s: %w", p.InPath, err)
		}
		klog.Infof("processed: %s (%dx%d)", p.Filename, p.Width, p.Height)
	}

	path := filepath.Join(pub, tiburon.ManifestName)
	if err := tiburon.WriteManifest(path, ps); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	klog.Infof("manifest with %d photos written to %s", len(ps), path)
	return ps, nil
}
