//go:build js && wasm

// Package browser binds the driver to a web page through syscall/js: a
// canvas inside a container element, requestAnimationFrame, window resize,
// page visibility and devicePixelRatio.
package browser

import (
	"fmt"
	"sync/atomic"
	"syscall/js"
	"time"

	"github.com/agiangrant/boot"
	"github.com/agiangrant/boot/input"
	"github.com/agiangrant/boot/internal/viewport"
)

// ContextKind selects the canvas rendering context.
type ContextKind string

const (
	ContextWebGL2 ContextKind = "webgl2"
	ContextWebGL  ContextKind = "webgl"
	Context2D     ContextKind = "2d"
)

// Host is the page the application runs in.
type Host struct {
	window   js.Value
	document js.Value
	parentID string

	// Retained so the page keeps calling them.
	funcs []js.Func
}

var (
	_ boot.Host          = (*Host)(nil)
	_ boot.URIOpener     = (*Host)(nil)
	_ boot.AgentReporter = (*Host)(nil)
)

// NewHost creates a host that places its container inside the element with
// id parentID, or in the document body when parentID is empty.
func NewHost(parentID string) *Host {
	g := js.Global()
	return &Host{
		window:   g.Get("window"),
		document: g.Get("document"),
		parentID: parentID,
	}
}

func (h *Host) WindowSize() (int, int) {
	return h.window.Get("innerWidth").Int(), h.window.Get("innerHeight").Int()
}

func (h *Host) PixelDensity() float64 {
	dpr := h.window.Get("devicePixelRatio")
	if dpr.IsUndefined() || dpr.IsNull() {
		return 1
	}
	return dpr.Float()
}

func (h *Host) NewContainer(width, height int) boot.Container {
	el := h.document.Call("createElement", "div")
	el.Set("className", "boot-root")

	parent := h.document.Get("body")
	if h.parentID != "" {
		if p := h.document.Call("getElementById", h.parentID); !p.IsNull() && !p.IsUndefined() {
			parent = p
		}
	}
	parent.Call("appendChild", el)

	c := &Container{document: h.document, el: el}
	c.SetSize(width, height)
	return c
}

func (h *Host) OnResize(fn func(w, h int)) {
	h.listen(h.window, "resize", func(js.Value) {
		w, hh := h.WindowSize()
		fn(w, hh)
	})
}

func (h *Host) OnVisibilityChange(fn func(visible bool)) {
	h.listen(h.document, "visibilitychange", func(js.Value) {
		fn(h.document.Get("visibilityState").String() == "visible")
	})
}

func (h *Host) OpenURI(uri string) error {
	if w := h.window.Call("open", uri, "_blank"); w.IsNull() {
		return fmt.Errorf("browser blocked opening %s", uri)
	}
	return nil
}

func (h *Host) Agent() boot.Agent {
	ua := h.window.Get("navigator").Get("userAgent").String()
	mobile := false
	if m := h.window.Get("navigator").Get("userAgentData"); !m.IsUndefined() && !m.IsNull() {
		mobile = m.Get("mobile").Truthy()
	}
	return boot.Agent{Platform: boot.PlatformWeb, UserAgent: ua, Mobile: mobile}
}

func (h *Host) listen(target js.Value, event string, fn func(e js.Value)) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		var e js.Value
		if len(args) > 0 {
			e = args[0]
		}
		fn(e)
		return nil
	})
	h.funcs = append(h.funcs, f)
	target.Call("addEventListener", event, f)
}

// Container is a div holding the canvas or the fallback message.
type Container struct {
	document js.Value
	el       js.Value
	width    int
	height   int
}

func (c *Container) SetSize(width, height int) {
	c.width, c.height = width, height
	style := c.el.Get("style")
	style.Set("width", fmt.Sprintf("%dpx", width))
	style.Set("height", fmt.Sprintf("%dpx", height))
}

func (c *Container) Size() (int, int) {
	return c.width, c.height
}

func (c *Container) Clear() {
	c.el.Set("innerHTML", "")
}

func (c *Container) Show(message string) {
	p := c.document.Call("createElement", "p")
	p.Set("textContent", message)
	c.el.Call("appendChild", p)
}

// Surface is a canvas element with a rendering context.
type Surface struct {
	Canvas  js.Value
	Context js.Value
}

func (s *Surface) Size() (int, int) {
	return s.Canvas.Get("width").Int(), s.Canvas.Get("height").Int()
}

func (s *Surface) SetSize(width, height int) {
	s.Canvas.Set("width", width)
	s.Canvas.Set("height", height)
}

// SurfaceFactory creates the canvas. The canvas backing store is sized in
// device pixels when the config asks for physical pixels; its CSS size
// always follows the container.
type SurfaceFactory struct {
	Host *Host
	Kind ContextKind
}

func (f *SurfaceFactory) CreateSurface(c boot.Container, cfg boot.Config) (boot.Surface, error) {
	bc, ok := c.(*Container)
	if !ok {
		return nil, fmt.Errorf("browser surface needs a browser container, got %T", c)
	}

	canvas := bc.document.Call("createElement", "canvas")
	style := canvas.Get("style")
	style.Set("width", "100%")
	style.Set("height", "100%")
	bc.el.Call("appendChild", canvas)

	kinds := []ContextKind{f.Kind}
	if f.Kind == "" {
		kinds = []ContextKind{ContextWebGL2, ContextWebGL}
	}
	var ctx js.Value
	for _, k := range kinds {
		ctx = canvas.Call("getContext", string(k))
		if !ctx.IsNull() && !ctx.IsUndefined() {
			break
		}
	}
	if ctx.IsNull() || ctx.IsUndefined() {
		bc.el.Call("removeChild", canvas)
		return nil, fmt.Errorf("no %v rendering context: %w", kinds, boot.ErrCapabilityUnavailable)
	}

	w, h := c.Size()
	if cfg.UsePhysicalPixels && f.Host != nil {
		w, h = viewport.ToPhysical(w, h, f.Host.PixelDensity())
	}
	s := &Surface{Canvas: canvas, Context: ctx}
	s.SetSize(w, h)
	return s, nil
}

// Scheduler runs callbacks on requestAnimationFrame.
type Scheduler struct {
	window js.Value
	next   atomic.Int64
}

// NewScheduler creates a requestAnimationFrame scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{window: js.Global().Get("window")}
}

func (s *Scheduler) Schedule(cb func(timestamp float64), _ boot.Surface) boot.FrameHandle {
	var f js.Func
	f = js.FuncOf(func(this js.Value, args []js.Value) any {
		defer f.Release()
		ts := float64(time.Now().UnixMilli())
		if len(args) > 0 {
			ts = args[0].Float()
		}
		cb(ts)
		return nil
	})
	s.window.Call("requestAnimationFrame", f)
	return boot.FrameHandle(s.next.Add(1))
}

// Input attaches keyboard, pointer and wheel listeners and returns the
// per-frame input state. Use it as Subsystems.Input.
func (h *Host) Input(c boot.Container) (boot.Input, error) {
	bc, ok := c.(*Container)
	if !ok {
		return nil, fmt.Errorf("browser input needs a browser container, got %T", c)
	}
	state := input.New()

	pos := func(e js.Value) (float64, float64) {
		rect := bc.el.Call("getBoundingClientRect")
		return e.Get("clientX").Float() - rect.Get("left").Float(),
			e.Get("clientY").Float() - rect.Get("top").Float()
	}

	h.listen(bc.el, "mousemove", func(e js.Value) {
		x, y := pos(e)
		state.Handle(input.Event{Type: input.EventPointerMoved, X: x, Y: y})
	})
	h.listen(bc.el, "mousedown", func(e js.Value) {
		x, y := pos(e)
		state.Handle(input.Event{Type: input.EventPointerPressed, X: x, Y: y, Button: e.Get("button").Int()})
	})
	h.listen(h.document, "mouseup", func(e js.Value) {
		x, y := pos(e)
		state.Handle(input.Event{Type: input.EventPointerReleased, X: x, Y: y, Button: e.Get("button").Int()})
	})
	h.listen(bc.el, "wheel", func(e js.Value) {
		e.Call("preventDefault")
		state.Handle(input.Event{Type: input.EventScroll, DX: e.Get("deltaX").Float(), DY: e.Get("deltaY").Float()})
	})
	h.listen(h.document, "keydown", func(e js.Value) {
		state.Handle(input.Event{Type: input.EventKeyPressed, Key: input.Keycode(e.Get("keyCode").Int())})
		if key := e.Get("key").String(); len([]rune(key)) == 1 {
			state.Handle(input.Event{Type: input.EventCharInput, Char: []rune(key)[0]})
		}
	})
	h.listen(h.document, "keyup", func(e js.Value) {
		state.Handle(input.Event{Type: input.EventKeyReleased, Key: input.Keycode(e.Get("keyCode").Int())})
	})
	return state, nil
}

// Options returns driver options wired to this page.
func (h *Host) Options(kind ContextKind) boot.Options {
	return boot.Options{
		Host:      h,
		Surfaces:  &SurfaceFactory{Host: h, Kind: kind},
		Scheduler: NewScheduler(),
		Subsystems: boot.Subsystems{
			Input: h.Input,
		},
	}
}
