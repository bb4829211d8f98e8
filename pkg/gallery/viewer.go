// Package gallery models the photo grid and its full-screen viewer.
//
// The rendered site runs the same model in the browser: assets/site/gallery.js
// in pkg/tiburon mirrors the key, swipe, backdrop and scroll-lock rules here,
// and pkg/tiburon uses NextIndex and PrevIndex to link the lightbox pages.
package gallery

import "sync"

// Key is a keyboard key as reported by the rendering surface.
type Key string

const (
	KeyEscape     Key = "Escape"
	KeyArrowRight Key = "ArrowRight"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyEnter      Key = "Enter"
	KeySpace      Key = " "
)

// DefaultSwipeThreshold is the minimum horizontal travel, in logical pixels, of a swipe.
const DefaultSwipeThreshold = 50.0

// Tile is one photo in the grid.
type Tile struct {
	Filename string
	URL      string
	Width    int
	Height   int
}

// AspectRatio is the width/height ratio a tile reserves before its image loads.
func (t Tile) AspectRatio() float64 {
	if t.Height == 0 {
		return 0
	}
	return float64(t.Width) / float64(t.Height)
}

// ScrollLocker suppresses background scrolling while the viewer is open.
type ScrollLocker interface {
	LockScroll()
	UnlockScroll()
}

// KeySource delivers key presses to a subscriber until the returned func is called.
type KeySource interface {
	Subscribe(func(Key)) (unsubscribe func())
}

// Preloaded reports whether an image URL has already been fetched.
type Preloaded interface {
	IsPreloaded(url string) bool
}

// NextIndex returns the index after i in a cycle of n.
func NextIndex(i, n int) int {
	if n <= 0 {
		return i
	}
	return (i + 1) % n
}

// PrevIndex returns the index before i in a cycle of n.
func PrevIndex(i, n int) int {
	if n <= 0 {
		return i
	}
	return (i - 1 + n) % n
}

// Viewer tracks which photo, if any, is shown full screen, and which tiles
// have finished loading.
type Viewer struct {
	tiles     []Tile
	threshold float64
	scroll    ScrollLocker
	keys      KeySource
	cache     Preloaded

	mu       sync.Mutex
	selected int
	open     bool
	unsub    func()
	touch    touchState
	loaded   map[string]bool
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithScrollLock locks background scrolling while open.
func WithScrollLock(s ScrollLocker) Option { return func(v *Viewer) { v.scroll = s } }

// WithKeys listens to ks for navigation keys while open.
func WithKeys(ks KeySource) Option { return func(v *Viewer) { v.keys = ks } }

// WithRegistry marks tiles the cache already holds as loaded from the start.
func WithRegistry(p Preloaded) Option { return func(v *Viewer) { v.cache = p } }

// WithSwipeThreshold sets the minimum swipe distance.
func WithSwipeThreshold(px float64) Option { return func(v *Viewer) { v.threshold = px } }

// New returns a closed viewer over tiles.
func New(tiles []Tile, opts ...Option) *Viewer {
	v := &Viewer{
		tiles:     tiles,
		threshold: DefaultSwipeThreshold,
		loaded:    map[string]bool{},
	}
	for _, o := range opts {
		o(v)
	}
	if v.cache != nil {
		for _, t := range tiles {
			if v.cache.IsPreloaded(t.URL) {
				v.loaded[t.Filename] = true
			}
		}
	}
	return v
}

// Len returns the number of tiles.
func (v *Viewer) Len() int { return len(v.tiles) }

// Selected returns the shown index and whether the viewer is open.
func (v *Viewer) Selected() (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected, v.open
}

// Current returns the shown tile.
func (v *Viewer) Current() (Tile, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open {
		return Tile{}, false
	}
	return v.tiles[v.selected], true
}

// Open shows tile i. The caller guarantees i is in range.
func (v *Viewer) Open(i int) {
	v.mu.Lock()
	wasOpen := v.open
	v.selected, v.open = i, true
	v.mu.Unlock()

	if wasOpen {
		return
	}
	if v.scroll != nil {
		v.scroll.LockScroll()
	}
	if v.keys != nil {
		unsub := v.keys.Subscribe(func(k Key) { v.HandleKey(k) })
		v.mu.Lock()
		if !v.open {
			// closed while subscribing
			v.mu.Unlock()
			unsub()
			return
		}
		v.unsub = unsub
		v.mu.Unlock()
	}
}

// Close hides the viewer.
func (v *Viewer) Close() {
	v.mu.Lock()
	if !v.open {
		v.mu.Unlock()
		return
	}
	v.open = false
	v.selected = 0
	v.touch = touchState{}
	unsub := v.unsub
	v.unsub = nil
	v.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if v.scroll != nil {
		v.scroll.UnlockScroll()
	}
}

// Teardown releases everything the viewer holds. It is safe to call more than once.
func (v *Viewer) Teardown() {
	v.Close()
}

// Next moves to the following photo, wrapping from last to first.
func (v *Viewer) Next() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.open {
		v.selected = NextIndex(v.selected, len(v.tiles))
	}
}

// Prev moves to the preceding photo, wrapping from first to last.
func (v *Viewer) Prev() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.open {
		v.selected = PrevIndex(v.selected, len(v.tiles))
	}
}

// HandleKey applies a key press to an open viewer and reports whether it was used.
func (v *Viewer) HandleKey(k Key) bool {
	if _, open := v.Selected(); !open {
		return false
	}
	switch k {
	case KeyEscape:
		v.Close()
	case KeyArrowRight:
		v.Next()
	case KeyArrowLeft:
		v.Prev()
	default:
		return false
	}
	return true
}

// ActivateTile opens tile i when k activates a focused tile.
func (v *Viewer) ActivateTile(i int, k Key) bool {
	if k != KeyEnter && k != KeySpace {
		return false
	}
	v.Open(i)
	return true
}

// ClickOutside handles a click on the backdrop around the image.
func (v *Viewer) ClickOutside() { v.Close() }

// MarkLoaded records that a tile's image has loaded. It never reverts.
func (v *Viewer) MarkLoaded(filename string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded[filename] = true
}

// Loaded reports whether a tile's image has loaded.
func (v *Viewer) Loaded(filename string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded[filename]
}
