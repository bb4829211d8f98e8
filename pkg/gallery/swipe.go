package gallery

// Swipe is the outcome of a touch gesture.
type Swipe int

const (
	NoSwipe Swipe = iota
	SwipeLeft
	SwipeRight
)

func (s Swipe) String() string {
	switch s {
	case SwipeLeft:
		return "left"
	case SwipeRight:
		return "right"
	default:
		return "none"
	}
}

type touchState struct {
	start, end       float64
	hasStart, hasEnd bool
}

// Classify decides a swipe from the horizontal start and end positions.
func Classify(startX, endX, threshold float64) Swipe {
	d := startX - endX
	switch {
	case d >= threshold:
		return SwipeLeft
	case d <= -threshold:
		return SwipeRight
	default:
		return NoSwipe
	}
}

// TouchStart begins a gesture at x.
func (v *Viewer) TouchStart(x float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.touch = touchState{start: x, hasStart: true}
}

// TouchMove samples the current position of the gesture.
func (v *Viewer) TouchMove(x float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.touch.end, v.touch.hasEnd = x, true
}

// TouchEnd finishes the gesture. A left swipe shows the next photo, a right
// swipe the previous one.
func (v *Viewer) TouchEnd() Swipe {
	v.mu.Lock()
	t := v.touch
	v.touch = touchState{}
	open := v.open
	v.mu.Unlock()

	if !open || !t.hasStart || !t.hasEnd {
		return NoSwipe
	}

	s := Classify(t.start, t.end, v.threshold)
	switch s {
	case SwipeLeft:
		v.Next()
	case SwipeRight:
		v.Prev()
	}
	return s
}
