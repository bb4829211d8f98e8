package gallery

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tiles(n int) []Tile {
	ts := make([]Tile, n)
	for i := range ts {
		name := fmt.Sprintf("%c.jpg", 'A'+i%26)
		ts[i] = Tile{Filename: name, URL: "/photos/" + name, Width: 4, Height: 3}
	}
	return ts
}

type fakeScroll struct{ locks, unlocks int }

func (f *fakeScroll) LockScroll()   { f.locks++ }
func (f *fakeScroll) UnlockScroll() { f.unlocks++ }

// fakeKeys is a key source that tracks live subscriptions.
type fakeKeys struct {
	subs map[int]func(Key)
	next int
}

func newFakeKeys() *fakeKeys { return &fakeKeys{subs: map[int]func(Key){}} }

func (f *fakeKeys) Subscribe(fn func(Key)) func() {
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() { delete(f.subs, id) }
}

func (f *fakeKeys) press(k Key) {
	for _, fn := range f.subs {
		fn(k)
	}
}

type fakeCache map[string]bool

func (f fakeCache) IsPreloaded(url string) bool { return f[url] }

func selected(t *testing.T, v *Viewer) int {
	t.Helper()
	i, open := v.Selected()
	require.True(t, open, "viewer should be open")
	return i
}

func TestArrowKeysWrap(t *testing.T) {
	keys := newFakeKeys()
	v := New(tiles(3), WithKeys(keys))

	v.Open(0)
	keys.press(KeyArrowRight)
	keys.press(KeyArrowRight)
	assert.Equal(t, 2, selected(t, v))

	keys.press(KeyArrowRight)
	assert.Equal(t, 0, selected(t, v))

	keys.press(KeyArrowLeft)
	assert.Equal(t, 2, selected(t, v))

	cur, ok := v.Current()
	require.True(t, ok)
	assert.Equal(t, "C.jpg", cur.Filename)
}

func TestOpenCloseSideEffects(t *testing.T) {
	scroll := &fakeScroll{}
	keys := newFakeKeys()
	v := New(tiles(3), WithScrollLock(scroll), WithKeys(keys))

	_, open := v.Selected()
	assert.False(t, open)
	assert.Empty(t, keys.subs)

	v.Open(1)
	assert.Equal(t, 1, scroll.locks)
	assert.Len(t, keys.subs, 1)

	// moving while open does not subscribe twice
	v.Open(2)
	assert.Len(t, keys.subs, 1)
	assert.Equal(t, 1, scroll.locks)

	keys.press(KeyEscape)
	_, open = v.Selected()
	assert.False(t, open)
	assert.Equal(t, 1, scroll.unlocks)
	assert.Empty(t, keys.subs)

	// closing again is a no-op
	v.Close()
	assert.Equal(t, 1, scroll.unlocks)
}

func TestTeardownUnsubscribes(t *testing.T) {
	keys := newFakeKeys()
	v := New(tiles(2), WithKeys(keys))

	v.Open(0)
	v.Teardown()
	v.Teardown()
	assert.Empty(t, keys.subs)

	keys.press(KeyArrowRight)
	_, open := v.Selected()
	assert.False(t, open)
}

func TestKeysIgnoredWhileClosed(t *testing.T) {
	v := New(tiles(3))
	assert.False(t, v.HandleKey(KeyArrowRight))
	v.Next()
	v.Prev()
	_, open := v.Selected()
	assert.False(t, open)

	v.Open(1)
	assert.False(t, v.HandleKey(Key("a")))
	assert.True(t, v.HandleKey(KeyArrowRight))
	assert.Equal(t, 2, selected(t, v))
}

func TestActivateTileAndClickOutside(t *testing.T) {
	v := New(tiles(4))

	assert.False(t, v.ActivateTile(2, Key("x")))
	_, open := v.Selected()
	assert.False(t, open)

	assert.True(t, v.ActivateTile(2, KeyEnter))
	assert.Equal(t, 2, selected(t, v))

	v.ClickOutside()
	_, open = v.Selected()
	assert.False(t, open)

	assert.True(t, v.ActivateTile(3, KeySpace))
	assert.Equal(t, 3, selected(t, v))
}

func TestSingleTileWrapsToItself(t *testing.T) {
	v := New(tiles(1))
	v.Open(0)
	v.Next()
	assert.Equal(t, 0, selected(t, v))
	v.Prev()
	assert.Equal(t, 0, selected(t, v))
}

func TestSwipe(t *testing.T) {
	tests := []struct {
		start, end float64
		want       Swipe
		index      int
	}{
		{start: 300, end: 251, want: NoSwipe, index: 1},
		{start: 300, end: 250, want: SwipeLeft, index: 2},
		{start: 300, end: 100, want: SwipeLeft, index: 2},
		{start: 100, end: 149, want: NoSwipe, index: 1},
		{start: 100, end: 150, want: SwipeRight, index: 0},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%v->%v", tc.start, tc.end), func(t *testing.T) {
			v := New(tiles(3))
			v.Open(1)
			v.TouchStart(tc.start)
			v.TouchMove((tc.start + tc.end) / 2)
			v.TouchMove(tc.end)
			assert.Equal(t, tc.want, v.TouchEnd())
			assert.Equal(t, tc.index, selected(t, v))
		})
	}
}

func TestSwipeWithoutMoveIsIgnored(t *testing.T) {
	v := New(tiles(3))
	v.Open(1)

	v.TouchStart(300)
	assert.Equal(t, NoSwipe, v.TouchEnd())

	// a new gesture clears the previous end sample
	v.TouchStart(300)
	v.TouchMove(10)
	v.TouchStart(300)
	assert.Equal(t, NoSwipe, v.TouchEnd())
	assert.Equal(t, 1, selected(t, v))
}

func TestSwipeThresholdOption(t *testing.T) {
	v := New(tiles(3), WithSwipeThreshold(100))
	v.Open(0)
	v.TouchStart(200)
	v.TouchMove(120)
	assert.Equal(t, NoSwipe, v.TouchEnd())
	assert.Equal(t, "left", Classify(200, 100, 100).String())
}

func TestTileLoadTracking(t *testing.T) {
	ts := tiles(3)
	v := New(ts)
	assert.False(t, v.Loaded("A.jpg"))

	v.MarkLoaded("A.jpg")
	v.MarkLoaded("A.jpg")
	assert.True(t, v.Loaded("A.jpg"))
	assert.False(t, v.Loaded("B.jpg"))

	v.Open(0)
	v.Close()
	assert.True(t, v.Loaded("A.jpg"))

	assert.InDelta(t, 4.0/3.0, ts[0].AspectRatio(), 1e-9)
	assert.Zero(t, Tile{}.AspectRatio())
}

func TestRegistrySeedsLoadedTiles(t *testing.T) {
	v := New(tiles(3), WithRegistry(fakeCache{"/photos/B.jpg": true}))
	assert.False(t, v.Loaded("A.jpg"))
	assert.True(t, v.Loaded("B.jpg"))
}

func TestNavigationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("n nexts return to the start", prop.ForAll(
		func(n int, i int) bool {
			i = i % n
			v := New(tiles(n))
			v.Open(i)
			for k := 0; k < n; k++ {
				v.Next()
			}
			got, open := v.Selected()
			return open && got == i
		},
		gen.IntRange(1, 60),
		gen.IntRange(0, 1000),
	))

	properties.Property("prev undoes next", prop.ForAll(
		func(n int, i int) bool {
			i = i % n
			v := New(tiles(n))
			v.Open(i)
			v.Next()
			v.Prev()
			got, _ := v.Selected()
			return got == i
		},
		gen.IntRange(1, 60),
		gen.IntRange(0, 1000),
	))

	properties.Property("short swipes never navigate", prop.ForAll(
		func(start float64, d float64) bool {
			return Classify(start, start-d, DefaultSwipeThreshold) == NoSwipe
		},
		gen.Float64Range(0, 2000),
		gen.Float64Range(-49.99, 49.99),
	))

	properties.TestingRun(t)
}
