package boot

import (
	"github.com/agiangrant/boot/internal/listeners"
)

// Application is the hosted application. Every method is called on the
// driver's logical thread.
type Application interface {
	// Create is called once, after every subsystem is available.
	Create(s *Services) error
	// Resize is called after Create with the surface size and again before
	// the first frame that observes a new size.
	Resize(width, height int) error
	// Render advances the application by one frame.
	Render() error
	Pause()
	Resume()
	Dispose()
}

// ApplicationFactory constructs the application. It is called from Boot.
type ApplicationFactory func() (Application, error)

// LifecycleListener receives pause and resume notifications.
type LifecycleListener = listeners.Listener

// LoadingListener brackets subsystem setup, e.g. to tear down a splash screen.
type LoadingListener interface {
	BeforeSetup()
	AfterSetup()
}

// FallbackFunc renders a replacement when setup cannot acquire the graphics
// capability. The container has already been cleared.
type FallbackFunc func(c Container, err error)

// DefaultFallbackMessage is shown by the default FallbackFunc.
const DefaultFallbackMessage = "Sorry, your host does not support the graphics this application needs."

func defaultFallback(c Container, _ error) {
	c.Show(DefaultFallbackMessage)
}

// Runtime is the lifecycle surface the driver exposes to the application and
// to embedding code. Queries are safe from any goroutine.
type Runtime interface {
	State() State
	FrameCount() uint64
	// PostDeferred schedules task to run at the next frame boundary.
	PostDeferred(task func())
	AddLifecycleListener(l LifecycleListener)
	RemoveLifecycleListener(l LifecycleListener)
	// ViewportSize is the last surface size the application was told about.
	ViewportSize() (width, height int)
	// Err returns the fatal error once the driver has failed.
	Err() error
}
