// Package headless is an in-process host for desktop, CI and tests. It has
// no window: sizes, visibility and frames are driven programmatically, and
// frames are paced by a rate limiter instead of a display.
package headless

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/agiangrant/boot"
	"github.com/agiangrant/boot/internal/viewport"
)

// Host is a window-less boot.Host.
type Host struct {
	mu           sync.Mutex
	width        int
	height       int
	density      float64
	container    *Container
	onResize     []func(w, h int)
	onVisibility []func(visible bool)
	opened       []string
}

var (
	_ boot.Host          = (*Host)(nil)
	_ boot.URIOpener     = (*Host)(nil)
	_ boot.AgentReporter = (*Host)(nil)
)

// NewHost creates a host with a window of width x height logical pixels.
func NewHost(width, height int, density float64) *Host {
	if density <= 0 {
		density = 1
	}
	return &Host{width: width, height: height, density: density}
}

func (h *Host) WindowSize() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

func (h *Host) PixelDensity() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.density
}

func (h *Host) NewContainer(width, height int) boot.Container {
	c := &Container{}
	c.SetSize(width, height)
	h.mu.Lock()
	h.container = c
	h.mu.Unlock()
	return c
}

// Container returns the last container created, or nil.
func (h *Host) Container() *Container {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.container
}

func (h *Host) OnResize(fn func(w, h int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onResize = append(h.onResize, fn)
}

func (h *Host) OnVisibilityChange(fn func(visible bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onVisibility = append(h.onVisibility, fn)
}

// Resize changes the window size and notifies resize callbacks.
func (h *Host) Resize(width, height int) {
	h.mu.Lock()
	h.width, h.height = width, height
	fns := append([]func(int, int){}, h.onResize...)
	h.mu.Unlock()

	for _, fn := range fns {
		fn(width, height)
	}
}

// SetVisible notifies visibility callbacks.
func (h *Host) SetVisible(visible bool) {
	h.mu.Lock()
	fns := append([]func(bool){}, h.onVisibility...)
	h.mu.Unlock()

	for _, fn := range fns {
		fn(visible)
	}
}

// OpenURI records uri. Opened lists them.
func (h *Host) OpenURI(uri string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = append(h.opened, uri)
	return nil
}

// Opened returns the URIs passed to OpenURI.
func (h *Host) Opened() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.opened...)
}

func (h *Host) Agent() boot.Agent {
	return boot.Agent{Platform: boot.CurrentPlatform(), UserAgent: "headless", Mobile: false}
}

// Container is an in-memory root element.
type Container struct {
	mu      sync.Mutex
	width   int
	height  int
	message string
}

func (c *Container) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
}

func (c *Container) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = ""
}

func (c *Container) Show(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = message
}

// Message returns the text shown by Show, if any.
func (c *Container) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Surface is an in-memory render target.
type Surface struct {
	mu     sync.Mutex
	width  int
	height int
}

func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *Surface) SetSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// SurfaceFactory creates surfaces the size of their container, in device
// pixels when the config asks for physical pixels.
type SurfaceFactory struct {
	Host *Host
	// Unavailable makes CreateSurface fail as if the host had no graphics.
	Unavailable bool
}

var _ boot.SurfaceFactory = (*SurfaceFactory)(nil)

func (f *SurfaceFactory) CreateSurface(c boot.Container, cfg boot.Config) (boot.Surface, error) {
	if f.Unavailable {
		return nil, fmt.Errorf("headless surface: %w", boot.ErrCapabilityUnavailable)
	}
	w, h := c.Size()
	if cfg.UsePhysicalPixels && f.Host != nil {
		w, h = viewport.ToPhysical(w, h, f.Host.PixelDensity())
	}
	s := &Surface{}
	s.SetSize(w, h)
	return s, nil
}

// Scheduler delivers each scheduled callback on its own goroutine once the
// limiter allows it, at most fps times per second.
type Scheduler struct {
	limiter *rate.Limiter
	start   time.Time
	next    atomic.Int64
	ctx     context.Context
	cancel  context.CancelFunc
}

var _ boot.Scheduler = (*Scheduler)(nil)

// NewScheduler creates a scheduler pacing frames at fps. Zero or negative
// fps runs frames as fast as they are requested.
func NewScheduler(fps int) *Scheduler {
	limit := rate.Inf
	if fps > 0 {
		limit = rate.Limit(fps)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		limiter: rate.NewLimiter(limit, 1),
		start:   time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Scheduler) Schedule(cb func(timestamp float64), _ boot.Surface) boot.FrameHandle {
	handle := boot.FrameHandle(s.next.Add(1))
	go func() {
		if err := s.limiter.Wait(s.ctx); err != nil {
			return
		}
		cb(float64(time.Since(s.start).Microseconds()) / 1000)
	}()
	return handle
}

// Stop drops every pending and future callback.
func (s *Scheduler) Stop() {
	s.cancel()
}
