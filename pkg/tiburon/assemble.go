package tiburon

import (
	"fmt"
	"sort"

	"k8s.io/klog/v2"
)

// Site is an assembled collection of photos plus the copy around them.
type Site struct {
	Photos  []*Photo
	Hero    *Photo
	Preview []*Photo
	Content *Content
}

// Collect finds, publishes and orders the photos of a site.
func Collect(c *Config) (*Site, error) {
	klog.Infof("collect: %s -> %s", c.InDir, c.OutDir)

	content, err := LoadContent(c.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}

	found, err := Find(c.InDir, c.NoExif)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	ps := Dedupe(found)
	for _, p := range ps {
		p.Resize, err = publish(*p, c.OutDir, c.Prefix(), c.thumbOpts())
		if err != nil {
			return nil, fmt.Errorf("publish %s: %w", p.InPath, err)
		}
	}

	Arrange(ps)

	return &Site{
		Photos:  ps,
		Hero:    pickHero(ps, c.HeroFilename),
		Preview: preview(ps, c.PreviewCount),
		Content: content,
	}, nil
}

// Dedupe drops photos whose filename is already taken by an earlier one.
// Photos are published flat under one prefix, so filenames must be unique.
func Dedupe(found []*Photo) []*Photo {
	seen := map[string]bool{}
	ps := make([]*Photo, 0, len(found))
	for _, p := range found {
		if seen[p.Filename] {
			klog.Warningf("skipping %s: another photo is already named %q", p.InPath, p.Filename)
			continue
		}
		seen[p.Filename] = true
		ps = append(ps, p)
	}
	return ps
}

// Arrange sorts photos newest first and fills in missing alt texts.
func Arrange(ps []*Photo) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].Created.After(ps[j].Created)
	})

	for i, p := range ps {
		switch {
		case p.Alt != "":
		case p.Description != "":
			p.Alt = p.Description
		default:
			p.Alt = DefaultAlt(i+1, p.Orientation)
		}
	}
}

// pickHero prefers the configured photo, then the first horizontal one, then the first.
func pickHero(ps []*Photo, name string) *Photo {
	if len(ps) == 0 {
		return nil
	}
	if name != "" {
		for _, p := range ps {
			if p.Filename == name {
				return p
			}
		}
		klog.Warningf("hero %q not found", name)
	}
	for _, p := range ps {
		if p.Orientation == Horizontal {
			return p
		}
	}
	return ps[0]
}

func preview(ps []*Photo, n int) []*Photo {
	if n <= 0 {
		n = DefaultPreviewCount
	}
	if len(ps) > n {
		return ps[:n]
	}
	return ps
}
