package tiburon

import (
	"bytes"
	"embed"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/dynatec/tiburon/pkg/gallery"
)

//go:embed assets/site/*.tmpl
var templateFS embed.FS

//go:embed assets/site/style.css
var styleText string

//go:embed assets/site/gallery.js
var galleryScript []byte

// LiveReload adds the live reload client to rendered pages.
var LiveReload = false

// tile is a photo as placed in a gallery grid.
type tile struct {
	N     int
	Photo *Photo
	Src   string
	Full  string
	Link  string
}

type page struct {
	Content    *Content
	Title      string
	Canonical  string
	Hero       *tile
	Tiles      []tile
	Total      int
	ShowAll    bool
	Current    *tile
	Prev       string
	Next       string
	JSONLD     template.JS
	Style      template.CSS
	LiveReload bool
}

// Render writes the whole site into c.OutDir.
func Render(c *Config, s *Site) error {
	tmpl, err := template.New("site").Funcs(tmplFunctions()).ParseFS(templateFS, "assets/site/*.tmpl")
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if err := writeAssets(c.OutDir); err != nil {
		return fmt.Errorf("write assets: %w", err)
	}

	if err := WriteManifest(filepath.Join(c.OutDir, ManifestName), s.Photos); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	base, err := basePage(c, s)
	if err != nil {
		return fmt.Errorf("base page: %w", err)
	}

	tiles := tilesOf(c, s.Photos)

	idx := base
	idx.Canonical = canonical(c.SiteURL, "/")
	idx.Tiles = tiles[:len(preview(s.Photos, c.PreviewCount))]
	idx.ShowAll = len(s.Photos) > 0
	if s.Hero != nil {
		h := tileOf(c, s.Hero, 0)
		h.Photo = &Photo{Filename: s.Hero.Filename, Width: s.Hero.Width, Height: s.Hero.Height, Alt: s.Content.HeroAlt, Resize: s.Hero.Resize}
		idx.Hero = &h
	}
	if err := writePage(tmpl, "index.tmpl", filepath.Join(c.OutDir, "index.html"), idx); err != nil {
		return err
	}

	gal := base
	gal.Title = "Galería completa | " + s.Content.Title
	gal.Canonical = canonical(c.SiteURL, "/galeria/")
	gal.Tiles = tiles
	if err := writePage(tmpl, "gallery.tmpl", filepath.Join(c.OutDir, "galeria", "index.html"), gal); err != nil {
		return err
	}

	if err := writeLightboxes(c, tmpl, base, tiles); err != nil {
		return fmt.Errorf("write lightboxes: %w", err)
	}

	nf := base
	nf.Title = "Página no encontrada | " + s.Content.Title
	if err := writePage(tmpl, "notfound.tmpl", filepath.Join(c.OutDir, "404.html"), nf); err != nil {
		return err
	}

	if err := writeSitemap(c, filepath.Join(c.OutDir, "sitemap.xml")); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}

	return writeRobots(c, filepath.Join(c.OutDir, "robots.txt"))
}

// writeLightboxes writes one viewer page per photo, linked in a wrapping cycle.
func writeLightboxes(c *Config, tmpl *template.Template, base page, tiles []tile) error {
	klog.V(1).Infof("writing %d lightbox pages ...", len(tiles))
	n := len(tiles)
	for i := range tiles {
		p := base
		p.Current = &tiles[i]
		p.Total = n
		p.Title = fmt.Sprintf("Foto %d de %d | %s", i+1, n, base.Content.Title)
		p.Canonical = canonical(c.SiteURL, tiles[i].Link)
		p.Prev = tiles[gallery.PrevIndex(i, n)].Link
		p.Next = tiles[gallery.NextIndex(i, n)].Link

		path := filepath.Join(c.OutDir, "galeria", "foto", fmt.Sprint(i+1), "index.html")
		if err := writePage(tmpl, "photo.tmpl", path, p); err != nil {
			return err
		}
	}
	return nil
}

func basePage(c *Config, s *Site) (page, error) {
	ld, err := jsonLD(c, s.Content)
	if err != nil {
		return page{}, err
	}
	return page{
		Content:    s.Content,
		Title:      s.Content.Title,
		Total:      len(s.Photos),
		JSONLD:     ld,
		Style:      template.CSS(styleText),
		LiveReload: LiveReload,
	}, nil
}

func tilesOf(c *Config, ps []*Photo) []tile {
	ts := make([]tile, 0, len(ps))
	for i, p := range ps {
		ts = append(ts, tileOf(c, p, i))
	}
	return ts
}

func tileOf(c *Config, p *Photo, i int) tile {
	full := PhotoURL(c.Prefix(), p.Filename)
	t := tile{
		N:     i + 1,
		Photo: p,
		Src:   full,
		Full:  full,
		Link:  fmt.Sprintf("/galeria/foto/%d/", i+1),
	}
	if m, ok := p.Resize[TileThumb]; ok {
		t.Src = urlPath(m.RelPath)
	}
	if m, ok := p.Resize[ViewThumb]; ok {
		t.Full = urlPath(m.RelPath)
	}
	return t
}

// urlPath converts an output-relative file path into an escaped URL path.
func urlPath(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "/" + strings.Join(parts, "/")
}

func canonical(siteURL string, p string) string {
	return strings.TrimSuffix(siteURL, "/") + p
}

func writeAssets(outDir string) error {
	dir := filepath.Join(outDir, "_")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "gallery.js"), galleryScript, 0o644)
}

func writePage(tmpl *template.Template, name string, path string, data page) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	klog.V(1).Infof("writing %s", path)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func jsonLD(c *Config, ct *Content) (template.JS, error) {
	b := ct.Business
	ld := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "LocalBusiness",
		"name":        b.Name,
		"description": b.Description,
		"url":         c.SiteURL,
		"telephone":   b.Telephone,
		"address": map[string]string{
			"@type":           "PostalAddress",
			"addressLocality": b.Locality,
			"addressRegion":   b.Region,
			"addressCountry":  b.Country,
		},
	}
	bs, err := json.Marshal(ld)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return template.JS(bs), nil
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func writeSitemap(c *Config, path string) error {
	now := time.Now().UTC().Format("2006-01-02")
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: canonical(c.SiteURL, "/"), LastMod: now, ChangeFreq: "monthly", Priority: 1},
			{Loc: canonical(c.SiteURL, "/galeria/"), LastMod: now, ChangeFreq: "monthly", Priority: 0.8},
		},
	}
	bs, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return os.WriteFile(path, append([]byte(xml.Header), bs...), 0o644)
}

func writeRobots(c *Config, path string) error {
	s := "User-agent: *\nAllow: /\n"
	if c.SiteURL != "" {
		s += "Sitemap: " + canonical(c.SiteURL, "/sitemap.xml") + "\n"
	}
	return os.WriteFile(path, []byte(s), 0o644)
}

// tmplFunctions are functions available to our templates.
func tmplFunctions() template.FuncMap {
	return template.FuncMap{
		"WhatsAppURL": func(phone string, msg string) string {
			return "https://wa.me/" + phone + "?text=" + url.QueryEscape(msg)
		},
		"Join": strings.Join,
	}
}
