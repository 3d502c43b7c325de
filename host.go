package boot

// Host is the page or window the application is embedded in. Callbacks
// registered with OnResize and OnVisibilityChange may fire on any goroutine;
// the driver marshals them onto its logical thread.
type Host interface {
	// WindowSize returns the client area in logical pixels.
	WindowSize() (width, height int)
	// PixelDensity returns device pixels per logical pixel.
	PixelDensity() float64
	// NewContainer creates the root container sized in logical pixels.
	NewContainer(width, height int) Container
	// OnResize registers a window resize callback (logical pixels).
	OnResize(fn func(width, height int))
	// OnVisibilityChange registers a page visibility callback.
	OnVisibilityChange(fn func(visible bool))
}

// URIOpener is implemented by hosts that can open URIs (new tab, browser).
type URIOpener interface {
	OpenURI(uri string) error
}

// Container is the root element the surface lives in.
type Container interface {
	SetSize(width, height int)
	Size() (width, height int)
	// Clear removes all children, including any preloader widget.
	Clear()
	// Show replaces the content with a plain message. Used for the
	// "graphics not supported" fallback.
	Show(message string)
}

// Surface is the drawable target sized in surface pixels.
type Surface interface {
	Size() (width, height int)
	SetSize(width, height int)
}

// SurfaceFactory creates the rendering surface inside a container. When the
// graphics capability is missing it returns an error wrapping
// ErrCapabilityUnavailable.
type SurfaceFactory interface {
	CreateSurface(c Container, cfg Config) (Surface, error)
}

// SurfaceFactoryFunc adapts a function to SurfaceFactory.
type SurfaceFactoryFunc func(c Container, cfg Config) (Surface, error)

func (f SurfaceFactoryFunc) CreateSurface(c Container, cfg Config) (Surface, error) {
	return f(c, cfg)
}

// FrameHandle identifies a scheduled frame callback.
type FrameHandle int64

// Scheduler invokes cb once, at the next display refresh for s. It does not
// repeat; the driver schedules again after every successful frame.
type Scheduler interface {
	Schedule(cb func(timestamp float64), s Surface) FrameHandle
}
