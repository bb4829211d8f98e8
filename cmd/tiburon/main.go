// tiburon builds the wedding car site from a photo directory and optionally serves it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"

	"github.com/dynatec/tiburon/pkg/contact"
	"github.com/dynatec/tiburon/pkg/gallery"
	"github.com/dynatec/tiburon/pkg/preload"
	"github.com/dynatec/tiburon/pkg/site"
	"github.com/dynatec/tiburon/pkg/tiburon"
)

var (
	inDir     = flag.String("in", "", "Location of input photo directory")
	outDir    = flag.String("out", "", "Location of output directory")
	content   = flag.String("content", "", "YAML file with the site copy (default: built-in)")
	siteURL   = flag.String("site-url", "https://bodas-citroen-ds.vercel.app", "public URL of the site")
	hero      = flag.String("hero", "", "filename of the hero photo")
	prefix    = flag.String("prefix", tiburon.DefaultPhotoPrefix, "URL path prefix photos are published under")
	noExif    = flag.Bool("noexif", false, "read image headers instead of running exiftool")
	listen    = flag.Bool("listen", false, "serve content via HTTP")
	addr      = flag.String("addr", "", "host:port to bind to in listen mode (default localhost:$PORT or localhost:12800)")
	watchFlag = flag.Bool("watch", false, "watch for changes to in and rebuild")
	warm      = flag.Bool("warm", false, "preload every photo through the server after it starts")
	batch     = flag.Int("batch", tiburon.DefaultBatchSize, "photos per preload batch")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *inDir == "" {
		klog.Exitf("--in is a required flag")
	}

	if *outDir == "" {
		klog.Exitf("--out is a required flag")
	}

	c := &tiburon.Config{
		InDir:        *inDir,
		OutDir:       *outDir,
		SiteURL:      *siteURL,
		ContentPath:  *content,
		HeroFilename: *hero,
		PhotoPrefix:  *prefix,
		BatchSize:    *batch,
		NoExif:       *noExif,
	}

	var rl *site.Reloader
	if *watchFlag && *listen {
		rl = site.NewReloader()
		tiburon.LiveReload = true
	}

	s, err := build(c)
	if err != nil {
		klog.Exitf("build failed: %v", err)
	}

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(c, s, rl); err != nil {
				klog.Exitf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		a := listenAddr()
		reg := prometheus.NewRegistry()
		m := preload.NewMetrics(reg)

		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(c, a, reg, rl)
		}()

		if *warm {
			wg.Add(1)
			go func() {
				defer wg.Done()
				warmUp(c, "http://"+a, m)
			}()
		}
	}

	wg.Wait()
}

func build(c *tiburon.Config) (*tiburon.Site, error) {
	s, err := tiburon.Collect(c)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	if err := tiburon.Render(c, s); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	klog.Infof("built %d photos into %s", len(s.Photos), c.OutDir)
	return s, nil
}

func listenAddr() string {
	if *addr != "" {
		return *addr
	}
	if p := os.Getenv("PORT"); p != "" {
		return "localhost:" + p
	}
	return "localhost:12800"
}

// serve serves the built site via HTTP
func serve(c *tiburon.Config, addr string, reg *prometheus.Registry, rl *site.Reloader) {
	ch := contact.NewHandler(contact.LogSink{}, reg)
	opts := []site.Option{site.WithGatherer(reg)}
	if rl != nil {
		opts = append(opts, site.WithReloader(rl))
	}
	srv := site.New(c.OutDir, c.Prefix(), ch, opts...)

	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	klog.Infof("Listening on %s...", addr)
	if err := hs.ListenAndServe(); err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}

// warmUp pulls every photo through the server once it answers health checks.
func warmUp(c *tiburon.Config, base string, m *preload.Metrics) {
	ctx := context.Background()

	l, err := preload.NewHTTPLoader(base)
	if err != nil {
		klog.Errorf("warm: %v", err)
		return
	}

	for i := 0; i < 50; i++ {
		resp, err := l.Client.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	ps, err := tiburon.LoadManifest(ctx, l.Client, base+"/"+tiburon.ManifestName)
	if err != nil {
		klog.Warningf("warm: skipping preload: %v", err)
		return
	}

	reg := preload.NewRegistry(l, preload.WithMetrics(m))
	p := preload.NewPreloader(reg, c.Prefix(), preload.WithPreloadMetrics(m))
	res := p.PreloadAll(ctx, ps, c.BatchSize)

	v := gallery.New(tiburon.Tiles(c.Prefix(), ps), gallery.WithRegistry(reg))
	ready := 0
	for _, ph := range ps {
		if v.Loaded(ph.Filename) {
			ready++
		}
	}
	klog.Infof("warm: %d/%d photos ready in %d batches (%d failed)", ready, v.Len(), res.Batches, res.Failed)
}

// watch watches the input directory for changes and rebuilds
func watch(c *tiburon.Config, s *tiburon.Site, rl *site.Reloader) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	dirs := []string{c.InDir}
	for _, p := range s.Photos {
		dirs = append(dirs, filepath.Dir(p.InPath))
	}
	if c.ContentPath != "" {
		dirs = append(dirs, filepath.Dir(c.ContentPath))
	}

	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	klog.Infof("watching %d dirs ...", len(dirs))
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if _, err := build(c); err != nil {
					klog.Errorf("rebuild failed: %v", err)
					continue
				}
				if rl != nil {
					rl.Broadcast()
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}
