package tiburon

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

// metaReader fills in dimensions, format and dates for a single file.
type metaReader func(path string, p *Photo) error

func readExif(et *exiftool.Exiftool) metaReader {
	return func(path string, p *Photo) error {
		fis := et.ExtractMetadata(path)
		fi := fis[0]
		if fi.Err != nil {
			return fmt.Errorf("extract fail for %q: %w", path, fi.Err)
		}

		for k, v := range fi.Fields {
			klog.V(2).Infof("%q=%v\n", k, v)
		}

		h, err := fi.GetInt("ImageHeight")
		if err != nil {
			return fmt.Errorf("get ImageHeight: %w", err)
		}
		w, err := fi.GetInt("ImageWidth")
		if err != nil {
			return fmt.Errorf("get ImageWidth: %w", err)
		}
		p.Width, p.Height = int(w), int(h)

		ft, err := fi.GetString("FileType")
		if err != nil {
			klog.V(1).Infof("unable to get file type for %s: %v", path, err)
			ft = "jpeg"
		}
		p.Format = strings.ToLower(ft)

		p.Description, err = fi.GetString("ImageDescription")
		if err != nil {
			klog.V(2).Infof("unable to get description: %v", err)
		}

		ds, err := fi.GetString("DateTimeOriginal")
		if err != nil {
			klog.V(1).Infof("unable to get date time for %s: %v", path, err)
			return nil
		}

		p.Created, err = time.Parse(exifDate, ds)
		if err != nil {
			return fmt.Errorf("parse time %q: %w", ds, err)
		}
		return nil
	}
}

// readHeader is used when exiftool is unavailable: it only knows dimensions and format.
func readHeader(path string, p *Photo) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, format, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("decode config %q: %w", path, err)
	}
	p.Width, p.Height, p.Format = ic.Width, ic.Height, format
	return nil
}

func isPhoto(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}

// Find returns the photos found beneath root.
func Find(root string, noExif bool) ([]*Photo, error) {
	found := []*Photo{}

	read := metaReader(readHeader)
	if !noExif {
		et, err := exiftool.NewExiftool()
		if err != nil {
			klog.Warningf("exiftool unavailable, reading image headers only: %v", err)
		} else {
			defer et.Close()
			read = readExif(et)
		}
	}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && filepath.Base(path)[0] == '.' {
				return godirwalk.SkipThis
			}

			if de.IsDir() || !isPhoto(path) {
				return nil
			}

			klog.V(1).Infof("found %s", path)
			p := &Photo{InPath: path, Filename: filepath.Base(path)}
			if err := read(path, p); err != nil {
				klog.Errorf("read failure: %v", err)
				return err
			}

			fi, err := os.Stat(path)
			if err != nil {
				klog.Errorf("stat failure: %v", err)
				return err
			}

			p.Size = fi.Size()
			p.Modified = fi.ModTime()
			if p.Created.IsZero() {
				p.Created = p.Modified
			}
			p.Orientation = OrientationOf(p.Width, p.Height)

			found = append(found, p)
			return nil
		},
		Unsorted: false,
	})

	return found, err
}
