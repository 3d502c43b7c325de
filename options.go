package boot

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agiangrant/boot/input"
	"github.com/agiangrant/boot/network"
	"github.com/agiangrant/boot/prefs"
	"github.com/agiangrant/boot/preload"
)

// Options carries the collaborators of a Driver. Host, Surfaces and Scheduler
// are required; everything else has a default.
type Options struct {
	Host      Host
	Surfaces  SurfaceFactory
	Scheduler Scheduler

	// Root is a pre-bound container. When set, the host window size and
	// resize events are not consulted.
	Root Container

	// Transport resolves the asset manifest. Nil preloads nothing.
	Transport preload.Transport
	// Progress receives preload progress. Nil logs progress.
	Progress preload.Callback

	Subsystems Subsystems

	Loading  LoadingListener
	Fallback FallbackFunc

	// Logger overrides the logger built from Config.LogLevel and LogFormat.
	Logger *zerolog.Logger
	// Registerer receives the driver's metrics. Nil uses a private registry.
	Registerer prometheus.Registerer
}

// Subsystems constructs the services bound at setup. Any nil field uses the
// default implementation; a nil Audio leaves Services.Audio nil.
type Subsystems struct {
	Audio       func(cfg Config) (Audio, error)
	Files       func(store *preload.Store) (Files, error)
	Input       func(c Container) (Input, error)
	Net         func(cfg Config) (Net, error)
	Clipboard   func() (Clipboard, error)
	Preferences prefs.OpenFunc
}

func (s Subsystems) withDefaults(host Host) Subsystems {
	if s.Files == nil {
		s.Files = func(store *preload.Store) (Files, error) {
			return preload.NewFiles(store), nil
		}
	}
	if s.Input == nil {
		s.Input = func(Container) (Input, error) {
			return input.New(), nil
		}
	}
	if s.Net == nil {
		s.Net = func(Config) (Net, error) {
			opts := network.Options{}
			if o, ok := host.(URIOpener); ok {
				opts.OpenURI = o.OpenURI
			}
			return network.New(opts), nil
		}
	}
	if s.Clipboard == nil {
		s.Clipboard = func() (Clipboard, error) {
			return &MemoryClipboard{}, nil
		}
	}
	if s.Preferences == nil {
		s.Preferences = prefs.OpenMemory
	}
	return s
}

// logProgress is the Callback used when Options.Progress is nil.
type logProgress struct {
	log zerolog.Logger
}

func (l logProgress) Update(p preload.Progress) {
	l.log.Debug().
		Int("completed", p.Completed).
		Int("failed", len(p.Failed)).
		Int("total", p.Total).
		Bool("ended", p.Ended).
		Msg("preload progress")
}

func (l logProgress) Error(id string) {
	l.log.Error().Str("asset", id).Msg("failed to preload asset")
}

// nopTransport preloads nothing.
type nopTransport struct{}

func (nopTransport) LoadManifest(context.Context, string) ([]preload.Entry, error) {
	return nil, nil
}

func (nopTransport) Fetch(_ context.Context, e preload.Entry, done func(preload.Asset, error)) {
	done(preload.Asset{}, fmt.Errorf("%s: no transport configured", e.Path))
}
