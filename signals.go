package boot

import (
	"fmt"

	"github.com/agiangrant/boot/internal/viewport"
)

// HandleVisibilityChange resumes (visible) or pauses every registered
// lifecycle listener and then the application. The application is only
// notified while running. A panic in a listener is fatal.
func (d *Driver) HandleVisibilityChange(visible bool) error {
	st := d.State()
	switch st {
	case StateBooting:
		return fmt.Errorf("visibility change: %w (state %s)", ErrInvalidState, st)
	case StateFailed:
		return d.Err()
	}

	d.log.Debug().Bool("visible", visible).Msg("visibility changed")
	d.metrics.RecordVisibility(visible)

	if visible {
		if err := d.registry.BroadcastResume(guardFunc("resume")); err != nil {
			return d.fail(err)
		}
		if d.State() == StateRunning {
			if err := guardFunc("resume")(d.app.Resume); err != nil {
				return d.fail(err)
			}
		}
		return nil
	}

	if err := d.registry.BroadcastPause(guardFunc("pause")); err != nil {
		return d.fail(err)
	}
	if d.State() == StateRunning {
		if err := guardFunc("pause")(d.app.Pause); err != nil {
			return d.fail(err)
		}
	}
	return nil
}

// HandleResize applies a host resize in logical pixels. Sizes with a zero or
// negative dimension are dropped. The container follows the logical size
// and the surface, once created, follows it in surface pixels. The
// application hears about the change on the next FrameTick.
func (d *Driver) HandleResize(width, height int) {
	if width <= 0 || height <= 0 {
		d.log.Debug().Int("width", width).Int("height", height).Msg("ignoring degenerate resize")
		return
	}
	if d.root == nil {
		return
	}

	d.root.SetSize(width, height)
	if d.surface == nil {
		return
	}

	sw, sh := width, height
	if d.cfg.UsePhysicalPixels && d.opts.Host != nil {
		sw, sh = viewport.ToPhysical(width, height, d.opts.Host.PixelDensity())
	}
	d.surface.SetSize(sw, sh)
}

// PostResize marshals a resize onto the logical thread.
func (d *Driver) PostResize(width, height int) {
	d.Post(func() { d.HandleResize(width, height) })
}

// PostVisibility marshals a visibility change onto the logical thread.
func (d *Driver) PostVisibility(visible bool) {
	d.Post(func() {
		if err := d.HandleVisibilityChange(visible); err != nil {
			d.log.Debug().Err(err).Bool("visible", visible).Msg("visibility change not applied")
		}
	})
}

// armResize subscribes to host resizes once. Padding is removed before the
// size reaches HandleResize.
func (d *Driver) armResize() {
	if d.resizeArmed || d.opts.Host == nil {
		return
	}
	d.resizeArmed = true
	padH, padV := d.cfg.PadHorizontal, d.cfg.PadVertical
	d.opts.Host.OnResize(func(w, h int) {
		d.PostResize(w-padH, h-padV)
	})
}

// armVisibility subscribes to host visibility changes once.
func (d *Driver) armVisibility() {
	if d.visibilityArmed || d.opts.Host == nil {
		return
	}
	d.visibilityArmed = true
	d.opts.Host.OnVisibilityChange(d.PostVisibility)
}
