package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyEdgesClearOnReset(t *testing.T) {
	s := New()
	s.Handle(Event{Type: EventKeyPressed, Key: KeySpace})
	s.Handle(Event{Type: EventKeyPressed, Key: KeySpace}) // auto-repeat

	assert.True(t, s.IsKeyPressed(KeySpace))
	assert.True(t, s.IsKeyJustPressed(KeySpace))

	s.Reset()
	assert.True(t, s.IsKeyPressed(KeySpace), "held keys survive reset")
	assert.False(t, s.IsKeyJustPressed(KeySpace))

	s.Handle(Event{Type: EventKeyPressed, Key: KeySpace})
	assert.False(t, s.IsKeyJustPressed(KeySpace), "repeat while held is not an edge")

	s.Handle(Event{Type: EventKeyReleased, Key: KeySpace})
	assert.False(t, s.IsKeyPressed(KeySpace))
}

func TestPointerAndScroll(t *testing.T) {
	s := New()
	s.Handle(Event{Type: EventPointerPressed, X: 10, Y: 20, Button: 0})
	s.Handle(Event{Type: EventScroll, DX: 1, DY: -3})
	s.Handle(Event{Type: EventScroll, DY: -2})
	s.Handle(Event{Type: EventCharInput, Char: 'h'})
	s.Handle(Event{Type: EventCharInput, Char: 'i'})

	x, y := s.Pointer()
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 20.0, y)
	assert.True(t, s.JustTouched())
	assert.True(t, s.IsButtonPressed(0))
	dx, dy := s.Scroll()
	assert.Equal(t, 1.0, dx)
	assert.Equal(t, -5.0, dy)
	assert.Equal(t, "hi", s.Typed())

	s.Reset()
	assert.False(t, s.JustTouched())
	assert.True(t, s.IsButtonPressed(0))
	dx, dy = s.Scroll()
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	assert.Empty(t, s.Typed())

	s.Handle(Event{Type: EventPointerReleased, X: 11, Y: 21, Button: 0})
	assert.False(t, s.IsButtonPressed(0))
}
