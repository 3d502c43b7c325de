package commands

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agiangrant/boot"
	"github.com/agiangrant/boot/prefs"
)

// demoApp renders nothing; it counts frames, keeps a launch counter in the
// "demo" preferences and stops the driver after a number of frames.
type demoApp struct {
	frames   uint64
	stop     func()
	stopOnce sync.Once
	out      io.Writer

	services *boot.Services
	log      zerolog.Logger
	launches int64
	resizes  int
}

func (a *demoApp) Create(s *boot.Services) error {
	a.services = s
	a.log = s.Logger

	store, err := s.Preferences("demo")
	if err != nil {
		return fmt.Errorf("failed to open demo preferences: %w", err)
	}
	a.launches = prefs.GetInt(store, "launches", 0) + 1
	prefs.PutInt(store, "launches", a.launches)

	a.log.Info().
		Int64("launches", a.launches).
		Strs("assets", s.Files.List("")).
		Str("platform", string(s.Agent.Platform)).
		Msg("demo created")
	return nil
}

func (a *demoApp) Resize(width, height int) error {
	a.resizes++
	a.log.Info().Int("width", width).Int("height", height).Msg("demo resized")
	return nil
}

func (a *demoApp) Render() error {
	if a.frames > 0 && a.services.Runtime.FrameCount() >= a.frames {
		a.stopOnce.Do(a.stop)
	}
	return nil
}

func (a *demoApp) Pause()  { a.log.Info().Msg("demo paused") }
func (a *demoApp) Resume() { a.log.Info().Msg("demo resumed") }

func (a *demoApp) Dispose() {
	frames := uint64(0)
	if a.services != nil {
		frames = a.services.Runtime.FrameCount()
	}
	fmt.Fprintf(a.out, "rendered %d frames (launch #%d, %d resizes)\n", frames, a.launches, a.resizes)
}
