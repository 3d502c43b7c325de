package boot

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agiangrant/boot/input"
	"github.com/agiangrant/boot/network"
	"github.com/agiangrant/boot/prefs"
)

// Audio plays sounds. Implementations that also implement LifecycleListener
// are paused and resumed with the page.
type Audio interface {
	Play(path string) error
	StopAll()
}

// Files reads preloaded assets.
type Files interface {
	ReadFile(path string) ([]byte, error)
	Open(path string) (io.ReadCloser, error)
	Exists(path string) bool
	IsDirectory(path string) bool
	List(dir string) []string
}

// Input exposes per-frame input state. The driver calls Reset after every
// rendered frame.
type Input interface {
	IsKeyPressed(key input.Keycode) bool
	IsKeyJustPressed(key input.Keycode) bool
	IsButtonPressed(button int) bool
	JustTouched() bool
	Pointer() (x, y float64)
	Scroll() (dx, dy float64)
	Typed() string
	Reset()
}

// Net issues requests on behalf of the application.
type Net interface {
	Do(ctx context.Context, req network.Request) (*network.Response, error)
	Send(ctx context.Context, req network.Request, done func(*network.Response, error))
	OpenSocket(ctx context.Context, url string, header http.Header) (*network.Socket, error)
	OpenURI(uri string) error
}

// Clipboard holds text shared with the host.
type Clipboard interface {
	Contents() string
	SetContents(text string)
}

// MemoryClipboard is a Clipboard that never leaves the process.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *MemoryClipboard) Contents() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *MemoryClipboard) SetContents(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
}

// Services is the context object handed to Application.Create. The driver
// builds it once during setup and never reassigns its fields.
//
// Audio is nil when audio is disabled or no audio factory is configured.
type Services struct {
	Graphics  Surface
	Audio     Audio
	Files     Files
	Input     Input
	Net       Net
	Clipboard Clipboard
	Logger    zerolog.Logger
	Agent     Agent
	Runtime   Runtime

	prefs *prefs.Cache
}

// Preferences returns the named preference store, opening it on first use.
// Stores are cached by name for the life of the run.
func (s *Services) Preferences(name string) (prefs.Store, error) {
	return s.prefs.Get(name)
}
