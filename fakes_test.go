package boot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agiangrant/boot/preload"
)

type fakeContainer struct {
	mu      sync.Mutex
	w, h    int
	cleared int
	message string
}

func (c *fakeContainer) SetSize(w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w, c.h = w, h
}

func (c *fakeContainer) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w, c.h
}

func (c *fakeContainer) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared++
	c.message = ""
}

func (c *fakeContainer) Show(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = message
}

type fakeHost struct {
	mu           sync.Mutex
	w, h         int
	density      float64
	container    *fakeContainer
	onResize     []func(int, int)
	onVisibility []func(bool)
}

func (h *fakeHost) WindowSize() (int, int) { return h.w, h.h }
func (h *fakeHost) PixelDensity() float64  { return h.density }

func (h *fakeHost) NewContainer(w, hh int) Container {
	h.container = &fakeContainer{w: w, h: hh}
	return h.container
}

func (h *fakeHost) OnResize(fn func(int, int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onResize = append(h.onResize, fn)
}

func (h *fakeHost) OnVisibilityChange(fn func(bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onVisibility = append(h.onVisibility, fn)
}

func (h *fakeHost) resize(w, hh int) {
	h.mu.Lock()
	fns := append([]func(int, int){}, h.onResize...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(w, hh)
	}
}

func (h *fakeHost) visibility(v bool) {
	h.mu.Lock()
	fns := append([]func(bool){}, h.onVisibility...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

type fakeSurface struct {
	mu   sync.Mutex
	w, h int
}

func (s *fakeSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w, s.h
}

func (s *fakeSurface) SetSize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w, s.h = w, h
}

// surfaceFactory creates a surface the size of the container, or fails with err.
type surfaceFactory struct {
	err     error
	surface *fakeSurface
}

func (f *surfaceFactory) CreateSurface(c Container, _ Config) (Surface, error) {
	if f.err != nil {
		return nil, f.err
	}
	w, h := c.Size()
	f.surface = &fakeSurface{w: w, h: h}
	return f.surface, nil
}

// manualScheduler records frame requests; fire delivers them.
type manualScheduler struct {
	mu      sync.Mutex
	calls   int
	pending []func(float64)
}

func (s *manualScheduler) Schedule(cb func(float64), _ Surface) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.pending = append(s.pending, cb)
	return FrameHandle(s.calls)
}

func (s *manualScheduler) fire() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, cb := range pending {
		cb(float64(time.Now().UnixMilli()))
	}
	return len(pending)
}

func (s *manualScheduler) scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingApp logs every lifecycle call.
type recordingApp struct {
	mu       sync.Mutex
	events   []string
	services *Services

	createErr error
	renderErr func(frame uint64) error
	onRender  func(s *Services)
}

func (a *recordingApp) record(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, fmt.Sprintf(format, args...))
}

func (a *recordingApp) Create(s *Services) error {
	a.record("create")
	a.services = s
	return a.createErr
}

func (a *recordingApp) Resize(w, h int) error {
	a.record("resize %dx%d", w, h)
	return nil
}

func (a *recordingApp) Render() error {
	frame := a.services.Runtime.FrameCount()
	a.record("render %d", frame)
	if a.onRender != nil {
		a.onRender(a.services)
	}
	if a.renderErr != nil {
		return a.renderErr(frame)
	}
	return nil
}

func (a *recordingApp) Pause()   { a.record("pause") }
func (a *recordingApp) Resume()  { a.record("resume") }
func (a *recordingApp) Dispose() { a.record("dispose") }

func (a *recordingApp) log() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.events...)
}

func (a *recordingApp) count(prefix string) int {
	n := 0
	for _, e := range a.log() {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

type countingListener struct {
	pauses, resumes int
}

func (l *countingListener) Pause()  { l.pauses++ }
func (l *countingListener) Resume() { l.resumes++ }

type loadingMock struct {
	mock.Mock
}

func (m *loadingMock) BeforeSetup() { m.Called() }
func (m *loadingMock) AfterSetup()  { m.Called() }

// staticTransport serves assets from memory and completes synchronously.
type staticTransport struct {
	entries []preload.Entry
	data    map[string]string
}

func (t *staticTransport) LoadManifest(context.Context, string) ([]preload.Entry, error) {
	return t.entries, nil
}

func (t *staticTransport) Fetch(_ context.Context, e preload.Entry, done func(preload.Asset, error)) {
	data, ok := t.data[e.Path]
	if !ok {
		done(preload.Asset{}, fmt.Errorf("%s: not found", e.Path))
		return
	}
	done(preload.Asset{Data: []byte(data)}, nil)
}

type harness struct {
	driver    *Driver
	host      *fakeHost
	surfaces  *surfaceFactory
	scheduler *manualScheduler
	app       *recordingApp
}

func fixedConfig(w, h int) Config {
	cfg := DefaultConfig()
	cfg.FixedSize = true
	cfg.Width, cfg.Height = w, h
	return cfg
}

func resizableConfig() Config {
	cfg := DefaultConfig()
	cfg.PadHorizontal, cfg.PadVertical = 0, 0
	return cfg
}

func newHarness(t *testing.T, cfg Config, opts Options) *harness {
	t.Helper()
	h := &harness{
		host:      &fakeHost{w: 800, h: 600, density: 1},
		surfaces:  &surfaceFactory{},
		scheduler: &manualScheduler{},
		app:       &recordingApp{},
	}
	if opts.Host == nil && opts.Root == nil {
		opts.Host = h.host
	}
	if opts.Surfaces == nil {
		opts.Surfaces = h.surfaces
	}
	opts.Scheduler = h.scheduler
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	d, err := New(cfg, func() (Application, error) { return h.app, nil }, opts)
	require.NoError(t, err)
	h.driver = d
	return h
}

// boot boots the driver and runs posted work until setup has been attempted.
func (h *harness) boot(t *testing.T) {
	t.Helper()
	require.NoError(t, h.driver.Boot(context.Background()))
	require.Eventually(t, func() bool {
		h.driver.RunPending()
		return h.driver.State() != StatePreloading
	}, 2*time.Second, time.Millisecond)
}

// tick delivers scheduled frames and runs them.
func (h *harness) tick() {
	h.scheduler.fire()
	h.driver.RunPending()
}
