// Package boot drives a frame-rendered application from page load to its
// steady-state frame loop: it boots the host container, preloads assets,
// acquires subsystems, runs the hosted application's lifecycle and routes
// host resize and visibility signals onto a single logical thread.
package boot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agiangrant/boot/internal/listeners"
	"github.com/agiangrant/boot/internal/logging"
	"github.com/agiangrant/boot/internal/metrics"
	"github.com/agiangrant/boot/internal/taskqueue"
	"github.com/agiangrant/boot/internal/viewport"
	"github.com/agiangrant/boot/preload"
)

// Driver is the lifecycle driver.
//
// Lifecycle methods (Boot, OnPreloadComplete, FrameTick,
// HandleVisibilityChange, HandleResize) must be called from one logical
// thread: either the goroutine executing Run, or a caller that owns the
// loop itself and calls RunPending. Host callbacks, scheduler ticks and
// transport completions reach that thread through Post. Queries such as
// State, FrameCount and ViewportSize are safe from any goroutine.
type Driver struct {
	cfg     Config
	factory ApplicationFactory
	opts    Options
	subs    Subsystems

	base    zerolog.Logger
	log     zerolog.Logger
	metrics *metrics.Metrics
	session string

	state    atomic.Int32
	frames   atomic.Uint64
	size     atomic.Pointer[viewport.Size]
	failure  atomic.Pointer[FatalError]
	services atomic.Pointer[Services]

	inboxMu sync.Mutex
	inbox   []func()
	wake    chan struct{}

	done        chan struct{}
	disposeOnce sync.Once

	queue    *taskqueue.Queue
	registry *listeners.Registry
	store    *preload.Store

	// Logical-thread state.
	booted          bool
	ctx             context.Context
	app             Application
	root            Container
	surface         Surface
	input           Input
	gate            *preload.Gate
	tracker         viewport.Tracker
	created         bool
	resizeArmed     bool
	visibilityArmed bool
	framePending    bool
	loaded          int
	onFrame         func(timestamp float64)
}

var _ Runtime = (*Driver)(nil)

// New creates a driver. It does not touch the host until Boot.
func New(cfg Config, factory ApplicationFactory, opts Options) (*Driver, error) {
	if factory == nil {
		return nil, errors.New("boot: application factory is required")
	}
	if opts.Host == nil && opts.Root == nil {
		return nil, errors.New("boot: a host or a pre-bound root container is required")
	}
	if opts.Surfaces == nil {
		return nil, errors.New("boot: surface factory is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("boot: scheduler is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		cfg:      cfg,
		factory:  factory,
		opts:     opts,
		subs:     opts.Subsystems.withDefaults(opts.Host),
		metrics:  metrics.New(opts.Registerer),
		session:  uuid.NewString(),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		queue:    taskqueue.New(),
		registry: listeners.New(),
		store:    preload.NewStore(),
		ctx:      context.Background(),
	}
	d.base = d.newLogger()
	d.log = logging.WithComponent(d.base, "driver")
	d.onFrame = d.frameCallback
	d.size.Store(&viewport.Size{})
	if d.opts.Transport == nil {
		d.opts.Transport = nopTransport{}
	}
	if d.opts.Progress == nil {
		d.opts.Progress = logProgress{log: logging.WithComponent(d.base, "preload")}
	}
	if d.opts.Fallback == nil {
		d.opts.Fallback = defaultFallback
	}
	return d, nil
}

func (d *Driver) newLogger() zerolog.Logger {
	var base zerolog.Logger
	if d.opts.Logger != nil {
		base = *d.opts.Logger
	} else {
		base = logging.New(d.cfg.Logging())
	}
	return base.With().Str("session", d.session).Logger()
}

// Logger returns the driver's logger. Every line carries the session id.
func (d *Driver) Logger() zerolog.Logger {
	return d.log
}

// Boot creates the application, builds the root container and starts the
// preload. A factory error is returned as is (wrapped) and leaves the
// driver in StateBooting. Boot may only be called once. When ctx is done by
// the time preloading ends, setup is skipped.
func (d *Driver) Boot(ctx context.Context) error {
	if d.booted {
		return fmt.Errorf("boot: %w (state %s)", ErrInvalidState, d.State())
	}
	d.booted = true
	d.ctx = ctx

	app, err := d.factory()
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	if app == nil {
		return errors.New("failed to create application: factory returned nil")
	}
	d.app = app

	d.root = d.buildRoot()
	w, h := d.root.Size()
	d.log.Info().
		Bool("fixed_size", d.cfg.FixedSize).
		Int("width", w).
		Int("height", h).
		Str("platform", string(CurrentPlatform())).
		Msg("booting")

	d.setState(StatePreloading)
	d.gate = preload.NewGate(d.opts.Transport, d.Post, preload.Options{
		Store:   d.store,
		Timeout: d.cfg.PreloadTimeout.Duration,
		Logger:  logging.WithComponent(d.base, "preload"),
	})
	return d.gate.Preload(ctx, d.cfg.Manifest, &gateCallback{d: d, next: d.opts.Progress})
}

// buildRoot returns the pre-bound container or creates one sized for the
// configured layout mode.
func (d *Driver) buildRoot() Container {
	if d.opts.Root != nil {
		return d.opts.Root
	}
	host := d.opts.Host

	if !d.cfg.FixedSize {
		w, h := host.WindowSize()
		c := host.NewContainer(w-d.cfg.PadHorizontal, h-d.cfg.PadVertical)
		d.armResize()
		return c
	}

	w, h := d.cfg.Width, d.cfg.Height
	if d.cfg.UsePhysicalPixels {
		w, h = viewport.ToLogical(w, h, host.PixelDensity())
	}
	return host.NewContainer(w, h)
}

// gateCallback forwards preload progress and starts setup once the gate ends.
type gateCallback struct {
	d    *Driver
	next preload.Callback
}

func (g *gateCallback) Update(p preload.Progress) {
	if n := p.Completed - g.d.loaded; n > 0 {
		g.d.metrics.PreloadAssets.WithLabelValues("loaded").Add(float64(n))
		g.d.loaded = p.Completed
	}
	if err := guardFunc("progress")(func() { g.next.Update(p) }); err != nil {
		g.d.fail(err)
		return
	}
	if !p.Ended || g.d.State() != StatePreloading {
		return
	}
	if err := g.d.ctx.Err(); err != nil {
		g.d.log.Warn().Err(err).Msg("boot context done, skipping setup")
		return
	}
	if err := g.d.OnPreloadComplete(); err != nil {
		var fe *FatalError
		if !errors.As(err, &fe) {
			g.d.log.Warn().Err(err).Msg("setup skipped")
		}
	}
}

func (g *gateCallback) Error(id string) {
	g.d.metrics.RecordAsset(false)
	if g.d.State() == StateFailed {
		return
	}
	if err := guardFunc("progress")(func() { g.next.Error(id) }); err != nil {
		g.d.fail(err)
	}
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	prev := State(d.state.Swap(int32(s)))
	d.metrics.State.Set(float64(s))
	d.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("state transition")
}

// FrameCount returns the number of frames rendered since setup.
func (d *Driver) FrameCount() uint64 {
	return d.frames.Load()
}

// ViewportSize returns the last surface size reported to the application.
func (d *Driver) ViewportSize() (width, height int) {
	s := d.size.Load()
	return s.Width, s.Height
}

// PostDeferred schedules task for the next frame boundary. Safe from any
// goroutine and from inside a running deferred task.
func (d *Driver) PostDeferred(task func()) {
	d.queue.Enqueue(taskqueue.Task(task))
}

// AddLifecycleListener registers l for pause and resume notifications.
func (d *Driver) AddLifecycleListener(l LifecycleListener) {
	d.registry.Register(l)
}

// RemoveLifecycleListener unregisters l.
func (d *Driver) RemoveLifecycleListener(l LifecycleListener) {
	d.registry.Unregister(l)
}

// Services returns the services bound at setup, or nil before setup.
func (d *Driver) Services() *Services {
	return d.services.Load()
}

// Err returns the fatal error, or nil while the driver is healthy.
func (d *Driver) Err() error {
	if fe := d.failure.Load(); fe != nil {
		return fe
	}
	return nil
}

// fail records err as the fatal error, logs it and moves to StateFailed.
func (d *Driver) fail(err error) error {
	var fe *FatalError
	if !errors.As(err, &fe) {
		fe = &FatalError{Op: "lifecycle", Err: err}
	}

	ev := d.log.Error().
		Err(fe.Err).
		Str("op", fe.Op).
		Stringer("state", d.State()).
		Uint64("frame", d.FrameCount())
	if fe.Stack != nil {
		ev = ev.Bytes("stack", fe.Stack)
	}
	ev.Msg("fatal application error")

	d.failure.CompareAndSwap(nil, fe)
	d.setState(StateFailed)
	d.metrics.FatalErrorsTotal.Inc()
	d.signal()
	return fe
}

// Post queues fn to run on the logical thread. Safe from any goroutine.
func (d *Driver) Post(fn func()) {
	if fn == nil {
		return
	}
	d.inboxMu.Lock()
	d.inbox = append(d.inbox, fn)
	d.inboxMu.Unlock()
	d.signal()
}

func (d *Driver) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// RunPending executes the functions posted so far, in order, and returns how
// many ran. Functions posted meanwhile wait for the next call. Execution
// stops early once the driver has failed.
func (d *Driver) RunPending() int {
	d.inboxMu.Lock()
	batch := d.inbox
	d.inbox = nil
	d.inboxMu.Unlock()

	for i, fn := range batch {
		if d.State() == StateFailed || d.disposed() {
			return i
		}
		fn()
	}
	return len(batch)
}

// Run executes posted work until ctx is done, the driver fails or it is
// disposed. It returns the fatal error, ErrDisposed or ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	for {
		if d.disposed() {
			return ErrDisposed
		}
		d.RunPending()
		if err := d.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.done:
			return ErrDisposed
		case <-d.wake:
		}
	}
}

// Dispose disposes the application once and stops Run. Call it from the
// logical thread or after Run has returned.
func (d *Driver) Dispose() error {
	var err error
	d.disposeOnce.Do(func() {
		if d.created {
			err = guardFunc("dispose")(d.app.Dispose)
		}
		if svc := d.services.Load(); svc != nil {
			if ferr := svc.prefs.FlushAll(); ferr != nil {
				err = errors.Join(err, fmt.Errorf("failed to flush preferences: %w", ferr))
			}
		}
		close(d.done)
		d.log.Info().Uint64("frames", d.FrameCount()).Msg("disposed")
	})
	return err
}

func (d *Driver) disposed() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}
