// Package input accumulates host input events between frames.
package input

import "sync"

// EventType identifies an input event.
type EventType int32

const (
	EventKeyPressed EventType = iota
	EventKeyReleased
	EventCharInput
	EventPointerMoved
	EventPointerPressed
	EventPointerReleased
	EventScroll
)

// Keycode is a host key code (DOM keyCode values).
type Keycode uint32

const (
	KeyBackspace Keycode = 8
	KeyTab       Keycode = 9
	KeyEnter     Keycode = 13
	KeyShift     Keycode = 16
	KeyCtrl      Keycode = 17
	KeyAlt       Keycode = 18
	KeyEscape    Keycode = 27
	KeySpace     Keycode = 32
	KeyLeft      Keycode = 37
	KeyUp        Keycode = 38
	KeyRight     Keycode = 39
	KeyDown      Keycode = 40
	KeyDelete    Keycode = 46
	Key0         Keycode = 48
	Key9         Keycode = 57
	KeyA         Keycode = 65
	KeyZ         Keycode = 90
	KeyF1        Keycode = 112
	KeyF12       Keycode = 123
)

// Event is a single input event from the host.
type Event struct {
	Type   EventType
	Key    Keycode
	Char   rune
	X, Y   float64
	Button int
	DX, DY float64
}

// State tracks held keys and buttons plus per-frame edges.
// Handle may be called from any goroutine; Reset is called by the driver
// once per frame, after the application renders.
type State struct {
	mu sync.Mutex

	keys        map[Keycode]bool
	justKeys    map[Keycode]bool
	buttons     map[int]bool
	justTouched bool
	x, y        float64
	scrollX     float64
	scrollY     float64
	typed       []rune
}

// New creates an empty input state.
func New() *State {
	return &State{
		keys:     make(map[Keycode]bool),
		justKeys: make(map[Keycode]bool),
		buttons:  make(map[int]bool),
	}
}

// Handle folds an event into the state.
func (s *State) Handle(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Type {
	case EventKeyPressed:
		if !s.keys[e.Key] {
			s.justKeys[e.Key] = true
		}
		s.keys[e.Key] = true
	case EventKeyReleased:
		delete(s.keys, e.Key)
	case EventCharInput:
		s.typed = append(s.typed, e.Char)
	case EventPointerMoved:
		s.x, s.y = e.X, e.Y
	case EventPointerPressed:
		s.x, s.y = e.X, e.Y
		s.buttons[e.Button] = true
		s.justTouched = true
	case EventPointerReleased:
		s.x, s.y = e.X, e.Y
		delete(s.buttons, e.Button)
	case EventScroll:
		s.scrollX += e.DX
		s.scrollY += e.DY
	}
}

// IsKeyPressed reports whether key is held.
func (s *State) IsKeyPressed(key Keycode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key]
}

// IsKeyJustPressed reports whether key went down since the last Reset.
func (s *State) IsKeyJustPressed(key Keycode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.justKeys[key]
}

// IsButtonPressed reports whether a pointer button is held.
func (s *State) IsButtonPressed(button int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons[button]
}

// JustTouched reports whether any pointer button went down since the last Reset.
func (s *State) JustTouched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.justTouched
}

// Pointer returns the last pointer position.
func (s *State) Pointer() (x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

// Scroll returns the scroll delta accumulated since the last Reset.
func (s *State) Scroll() (dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollX, s.scrollY
}

// Typed returns the characters typed since the last Reset.
func (s *State) Typed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.typed)
}

// Reset clears per-frame accumulation. Held keys and buttons survive.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.justKeys)
	s.justTouched = false
	s.scrollX, s.scrollY = 0, 0
	s.typed = s.typed[:0]
}
