// Package listeners tracks observers of pause and resume.
package listeners

import "sync"

// Listener is notified when the application is paused or resumed.
// Implementations must be comparable (usually a pointer) so they can be
// unregistered.
type Listener interface {
	Pause()
	Resume()
}

// Registry holds lifecycle listeners.
//
// Broadcasts iterate over a snapshot taken when the broadcast starts, so
// listeners may register or unregister (themselves or others) from inside a
// callback. A listener added during a broadcast is not notified by it. A
// listener removed during a broadcast may or may not have been notified
// already, depending on its position in the snapshot.
type Registry struct {
	mu        sync.Mutex
	listeners []Listener
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register adds a listener. Nil listeners are ignored.
func (r *Registry) Register(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Unregister removes the first registration of l. Unknown listeners are ignored.
func (r *Registry) Unregister(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.listeners {
		if existing == l {
			// Copy instead of shifting in place so snapshots held by a
			// running broadcast stay intact.
			next := make([]Listener, 0, len(r.listeners)-1)
			next = append(next, r.listeners[:i]...)
			r.listeners = append(next, r.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// BroadcastPause calls Pause on every listener registered at call time.
func (r *Registry) BroadcastPause(guard Guard) error {
	return r.broadcast(guard, Listener.Pause)
}

// BroadcastResume calls Resume on every listener registered at call time.
func (r *Registry) BroadcastResume(guard Guard) error {
	return r.broadcast(guard, Listener.Resume)
}

// Guard wraps each listener call, typically to turn panics into errors.
// A nil Guard calls the listener directly.
type Guard func(fn func()) error

func (r *Registry) broadcast(guard Guard, notify func(Listener)) error {
	r.mu.Lock()
	snapshot := r.listeners[:len(r.listeners):len(r.listeners)]
	r.mu.Unlock()

	for _, l := range snapshot {
		l := l
		if guard == nil {
			notify(l)
			continue
		}
		if err := guard(func() { notify(l) }); err != nil {
			return err
		}
	}
	return nil
}
