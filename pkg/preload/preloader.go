package preload

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/dynatec/tiburon/pkg/tiburon"
)

// Defaults for a Preloader.
var (
	DefaultBatchSize = 4
	DefaultPace      = 50 * time.Millisecond
)

// Result summarizes a PreloadAll run.
type Result struct {
	Batches  int
	Loaded   int
	Failed   int
	Canceled bool
}

// Preloader feeds photos through a Registry in paced batches.
type Preloader struct {
	reg    *Registry
	prefix string
	pace   time.Duration

	metrics *Metrics
	onBatch func(n int, urls []string)
	wait    func(ctx context.Context, d time.Duration) error
}

// PreloaderOption configures a Preloader.
type PreloaderOption func(*Preloader)

// WithPace sets the delay between batches.
func WithPace(d time.Duration) PreloaderOption {
	return func(p *Preloader) { p.pace = d }
}

// WithBatchHook calls f before each batch starts.
func WithBatchHook(f func(n int, urls []string)) PreloaderOption {
	return func(p *Preloader) { p.onBatch = f }
}

// WithPreloadMetrics records batch counts in m.
func WithPreloadMetrics(m *Metrics) PreloaderOption {
	return func(p *Preloader) { p.metrics = m }
}

// NewPreloader returns a preloader for photos served under prefix.
func NewPreloader(reg *Registry, prefix string, opts ...PreloaderOption) *Preloader {
	p := &Preloader{
		reg:    reg,
		prefix: prefix,
		pace:   DefaultPace,
		wait:   sleep,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PreloadAll requests every photo, batchSize at a time. Batches run in
// order; requests within a batch run concurrently. Individual failures are
// logged and counted, never returned. Cancelling ctx stops further batches.
func (p *Preloader) PreloadAll(ctx context.Context, photos []tiburon.Photo, batchSize int) Result {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var res Result
	for start := 0; start < len(photos); start += batchSize {
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}

		end := min(start+batchSize, len(photos))
		batch := photos[start:end]

		urls := make([]string, len(batch))
		for i, ph := range batch {
			urls[i] = tiburon.PhotoURL(p.prefix, ph.Filename)
		}

		res.Batches++
		p.metrics.batch()
		if p.onBatch != nil {
			p.onBatch(res.Batches, urls)
		}

		loaded, failed := p.run(ctx, urls)
		res.Loaded += loaded
		res.Failed += failed

		if end < len(photos) {
			if err := p.wait(ctx, p.pace); err != nil {
				res.Canceled = true
				break
			}
		}
	}

	klog.V(1).Infof("preload: %d batches, %d loaded, %d failed, canceled=%v", res.Batches, res.Loaded, res.Failed, res.Canceled)
	return res
}

func (p *Preloader) run(ctx context.Context, urls []string) (int, int) {
	var loaded, failed atomic.Int64
	var g errgroup.Group
	for _, u := range urls {
		g.Go(func() error {
			if err := p.reg.Request(ctx, u); err != nil {
				klog.Warningf("failed to preload image %s: %v", u, err)
				failed.Add(1)
				return nil
			}
			loaded.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(loaded.Load()), int(failed.Load())
}
