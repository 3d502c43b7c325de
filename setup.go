package boot

import (
	"errors"
	"fmt"

	"github.com/agiangrant/boot/internal/logging"
	"github.com/agiangrant/boot/internal/viewport"
	"github.com/agiangrant/boot/prefs"
)

var errNilSubsystem = errors.New("factory returned nil")

// OnPreloadComplete acquires the subsystems, creates the application and
// arms the frame loop. The preload gate calls it after its final update.
//
// A surface that cannot be created is not fatal: the container shows the
// fallback, setup stops and the driver stays in StateSettingUp. Errors and
// panics from the application or the subsystem factories are fatal.
func (d *Driver) OnPreloadComplete() error {
	if st := d.State(); st != StatePreloading {
		return fmt.Errorf("preload complete: %w (state %s)", ErrInvalidState, st)
	}
	d.setState(StateSettingUp)
	d.root.Clear()

	if d.opts.Loading != nil {
		if err := guardFunc("before_setup")(d.opts.Loading.BeforeSetup); err != nil {
			return d.fail(err)
		}
	}

	surface, err := d.opts.Surfaces.CreateSurface(d.root, d.cfg)
	if err != nil {
		d.root.Clear()
		d.log.Error().
			Err(err).
			Bool("capability_unavailable", errors.Is(err, ErrCapabilityUnavailable)).
			Msg("failed to create rendering surface, showing fallback")
		d.opts.Fallback(d.root, err)
		return nil
	}
	d.surface = surface

	var svc *Services
	if err := guard("setup", func() (err error) {
		svc, err = d.acquire(surface)
		return err
	}); err != nil {
		return d.fail(err)
	}
	d.services.Store(svc)

	if err := guard("create", func() error { return d.app.Create(svc) }); err != nil {
		return d.fail(err)
	}
	d.created = true

	w, h := surface.Size()
	d.tracker.Reconcile(w, h)
	d.size.Store(&viewport.Size{Width: w, Height: h})
	if err := guard("resize", func() error { return d.app.Resize(w, h) }); err != nil {
		return d.fail(err)
	}
	d.metrics.ResizesTotal.Inc()

	d.setState(StateRunning)
	d.armVisibility()
	d.scheduleFrame()

	if d.opts.Loading != nil {
		if err := guardFunc("after_setup")(d.opts.Loading.AfterSetup); err != nil {
			return d.fail(err)
		}
	}

	d.log.Info().Int("width", w).Int("height", h).Msg("application running")
	return nil
}

// acquire builds the services in order: audio, files, input, network,
// clipboard and preferences.
func (d *Driver) acquire(surface Surface) (*Services, error) {
	var audio Audio
	switch {
	case d.cfg.DisableAudio:
		d.log.Debug().Msg("audio disabled")
	case d.subs.Audio == nil:
		d.log.Debug().Msg("no audio subsystem configured")
	default:
		a, err := d.subs.Audio(d.cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire audio: %w", err)
		}
		audio = a
		if l, ok := a.(LifecycleListener); ok {
			d.registry.Register(l)
		}
	}

	files, err := d.subs.Files(d.store)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire files: %w", err)
	}
	if files == nil {
		return nil, fmt.Errorf("failed to acquire files: %w", errNilSubsystem)
	}

	in, err := d.subs.Input(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire input: %w", err)
	}
	if in == nil {
		return nil, fmt.Errorf("failed to acquire input: %w", errNilSubsystem)
	}
	d.input = in

	net, err := d.subs.Net(d.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire network: %w", err)
	}
	if net == nil {
		return nil, fmt.Errorf("failed to acquire network: %w", errNilSubsystem)
	}

	clip, err := d.subs.Clipboard()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire clipboard: %w", err)
	}
	if clip == nil {
		return nil, fmt.Errorf("failed to acquire clipboard: %w", errNilSubsystem)
	}

	agent := Agent{Platform: CurrentPlatform(), Mobile: IsMobile()}
	if d.opts.Host != nil {
		agent = agentOf(d.opts.Host)
	}

	return &Services{
		Graphics:  surface,
		Audio:     audio,
		Files:     files,
		Input:     in,
		Net:       net,
		Clipboard: clip,
		Logger:    logging.WithComponent(d.base, "app"),
		Agent:     agent,
		Runtime:   d,
		prefs:     prefs.NewCache(d.subs.Preferences),
	}, nil
}
