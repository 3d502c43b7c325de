// Package viewport reconciles the render-surface size between frames.
package viewport

// Size is a render-surface size in pixels.
type Size struct {
	Width  int
	Height int
}

// Tracker remembers the last accepted surface size.
// It is owned by the logical thread and is not safe for concurrent use.
type Tracker struct {
	current Size
	seen    bool
}

// Current returns the last accepted size.
func (t *Tracker) Current() Size {
	return t.current
}

// Reconcile accepts a candidate size. It reports true on the first call and
// whenever the candidate differs from the previously accepted size.
func (t *Tracker) Reconcile(width, height int) bool {
	candidate := Size{Width: width, Height: height}
	if t.seen && candidate == t.current {
		return false
	}
	t.current = candidate
	t.seen = true
	return true
}

// ToPhysical converts logical pixels to physical pixels.
func ToPhysical(width, height int, density float64) (int, int) {
	if density <= 0 {
		density = 1
	}
	return int(float64(width) * density), int(float64(height) * density)
}

// ToLogical converts physical pixels to logical pixels.
func ToLogical(width, height int, density float64) (int, int) {
	if density <= 0 {
		density = 1
	}
	return int(float64(width) / density), int(float64(height) / density)
}
