// warm preloads every photo of a deployed site to fill CDN and proxy caches.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/dynatec/tiburon/pkg/preload"
	"github.com/dynatec/tiburon/pkg/tiburon"
)

var (
	site    = flag.String("site", "", "base URL of the site, for example https://bodas-citroen-ds.vercel.app")
	prefix  = flag.String("prefix", tiburon.DefaultPhotoPrefix, "URL path prefix photos are served under")
	batch   = flag.Int("batch", tiburon.DefaultBatchSize, "photos per batch")
	pace    = flag.Duration("pace", preload.DefaultPace, "delay between batches")
	timeout = flag.Duration("timeout", 30*time.Second, "per-photo fetch timeout")
)

// options for a warm-up run.
type options struct {
	Site    string
	Prefix  string
	Batch   int
	Pace    time.Duration
	Timeout time.Duration
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *site == "" {
		klog.Exitf("--site is a required flag")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, options{Site: *site, Prefix: *prefix, Batch: *batch, Pace: *pace, Timeout: *timeout})
	var mfe *tiburon.ManifestFetchError
	switch {
	case errors.As(err, &mfe):
		klog.Warningf("no photos to preload: %v", err)
		return
	case err != nil:
		klog.Exitf("warm: %v", err)
	}
	klog.Infof("done: %d batches, %d loaded, %d failed, canceled=%v", res.Batches, res.Loaded, res.Failed, res.Canceled)
}

// run fetches the site manifest and preloads every photo it lists. A manifest
// that cannot be fetched is returned as a *tiburon.ManifestFetchError and
// nothing is preloaded.
func run(ctx context.Context, o options) (preload.Result, error) {
	base := strings.TrimSuffix(o.Site, "/")

	l, err := preload.NewHTTPLoader(base)
	if err != nil {
		return preload.Result{}, fmt.Errorf("loader: %w", err)
	}
	if o.Timeout > 0 {
		l.Client.Timeout = o.Timeout
	}

	ps, err := tiburon.LoadManifest(ctx, l.Client, base+"/"+tiburon.ManifestName)
	if err != nil {
		return preload.Result{}, err
	}
	klog.Infof("preloading %d photos from %s in batches of %d", len(ps), base, o.Batch)

	reg := preload.NewRegistry(l)
	p := preload.NewPreloader(reg, o.Prefix,
		preload.WithPace(o.Pace),
		preload.WithBatchHook(func(n int, urls []string) {
			klog.V(1).Infof("batch %d: %v", n, urls)
		}))

	return p.PreloadAll(ctx, ps, o.Batch), nil
}
