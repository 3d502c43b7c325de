package boot

import (
	"errors"
	"fmt"

	"github.com/agiangrant/boot/internal/taskqueue"
	"github.com/agiangrant/boot/internal/viewport"
)

// FrameTick runs one frame: it notifies the application of a surface size
// change, drains the deferred tasks queued before this tick, advances the
// frame counter, renders and resets per-frame input. On success the next
// frame is scheduled. Any error or panic from application code is fatal and
// nothing is scheduled after it.
func (d *Driver) FrameTick() error {
	switch st := d.State(); st {
	case StateRunning:
	case StateFailed:
		return d.Err()
	default:
		return fmt.Errorf("frame tick: %w (state %s)", ErrInvalidState, st)
	}
	if d.disposed() {
		return ErrDisposed
	}

	w, h := d.surface.Size()
	if d.tracker.Reconcile(w, h) {
		d.size.Store(&viewport.Size{Width: w, Height: h})
		d.log.Debug().Int("width", w).Int("height", h).Msg("viewport changed")
		if err := guard("resize", func() error { return d.app.Resize(w, h) }); err != nil {
			return d.fail(err)
		}
		d.metrics.ResizesTotal.Inc()
	}

	ran := 0
	err := d.queue.DrainInto(func(task taskqueue.Task) error {
		ran++
		return guardFunc("deferred")(task)
	})
	d.metrics.DeferredTasks.Add(float64(ran))
	if err != nil {
		return d.fail(err)
	}

	// The application observes the new frame number while rendering; a
	// failed frame does not count.
	d.frames.Add(1)
	if err := guard("render", d.app.Render); err != nil {
		d.frames.Add(^uint64(0))
		return d.fail(err)
	}
	d.input.Reset()
	d.metrics.FramesTotal.Inc()

	d.scheduleFrame()
	return nil
}

// scheduleFrame asks the scheduler for the next frame unless one is already
// pending.
func (d *Driver) scheduleFrame() {
	if d.framePending || d.State() != StateRunning || d.disposed() {
		return
	}
	d.framePending = true
	d.opts.Scheduler.Schedule(d.onFrame, d.surface)
}

// frameCallback is handed to the scheduler. It may run on any goroutine.
func (d *Driver) frameCallback(float64) {
	d.Post(func() {
		d.framePending = false
		if err := d.FrameTick(); err != nil {
			var fe *FatalError
			if !errors.As(err, &fe) {
				d.log.Debug().Err(err).Msg("frame skipped")
			}
		}
	})
}
