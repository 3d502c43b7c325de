package listeners

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	pauses  int
	resumes int
	onPause func()
}

func (r *recorder) Pause() {
	r.pauses++
	if r.onPause != nil {
		r.onPause()
	}
}

func (r *recorder) Resume() { r.resumes++ }

func TestPauseThenResumeReachesEveryListener(t *testing.T) {
	reg := New()
	a, b := &recorder{}, &recorder{}
	reg.Register(a)
	reg.Register(b)

	require.NoError(t, reg.BroadcastPause(nil))
	late := &recorder{}
	reg.Register(late)
	require.NoError(t, reg.BroadcastResume(nil))

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, 1, r.pauses)
		assert.Equal(t, 1, r.resumes)
	}
	assert.Equal(t, 0, late.pauses)
	assert.Equal(t, 1, late.resumes)
}

func TestListenerUnregistersItselfDuringBroadcast(t *testing.T) {
	reg := New()
	var self *recorder
	self = &recorder{onPause: func() { reg.Unregister(self) }}
	other := &recorder{}
	reg.Register(self)
	reg.Register(other)

	require.NoError(t, reg.BroadcastPause(nil))

	assert.Equal(t, 1, self.pauses)
	assert.Equal(t, 1, other.pauses, "snapshot still reaches later listeners")
	assert.Equal(t, 1, reg.Len())

	require.NoError(t, reg.BroadcastPause(nil))
	assert.Equal(t, 1, self.pauses)
	assert.Equal(t, 2, other.pauses)
}

func TestListenerAddedDuringBroadcastIsNotNotified(t *testing.T) {
	reg := New()
	added := &recorder{}
	trigger := &recorder{onPause: func() { reg.Register(added) }}
	reg.Register(trigger)

	require.NoError(t, reg.BroadcastPause(nil))
	assert.Equal(t, 0, added.pauses)
	assert.Equal(t, 2, reg.Len())
}

func TestUnregisterUnknownListener(t *testing.T) {
	reg := New()
	reg.Register(&recorder{})
	reg.Unregister(&recorder{})
	assert.Equal(t, 1, reg.Len())
}

func TestGuardStopsBroadcastOnError(t *testing.T) {
	reg := New()
	first, second := &recorder{}, &recorder{}
	reg.Register(first)
	reg.Register(second)

	boom := errors.New("boom")
	calls := 0
	err := reg.BroadcastResume(func(fn func()) error {
		fn()
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, first.resumes)
	assert.Equal(t, 0, second.resumes)
}
