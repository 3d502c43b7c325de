package preload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrAlreadyStarted is returned when Preload is called twice on one Gate.
var ErrAlreadyStarted = errors.New("preload: already started")

// Transport resolves manifests and fetches their entries. Fetch must not
// block: it starts the request and calls done exactly once per attempt, from
// any goroutine. Retries, and therefore duplicate completions, are the
// transport's business; the Gate ignores repeats.
type Transport interface {
	LoadManifest(ctx context.Context, ref string) ([]Entry, error)
	Fetch(ctx context.Context, entry Entry, done func(Asset, error))
}

// Options configures a Gate.
type Options struct {
	// Store receives successfully fetched assets. Optional.
	Store *Store
	// Timeout bounds each entry fetch. Zero means no timeout: a stalled
	// entry keeps the gate from ending.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Gate drives one preload run.
//
// Every transport result is marshaled through post before it touches the
// gate's state, so all progress bookkeeping and every Callback invocation
// happens on the thread that executes posted functions.
type Gate struct {
	transport Transport
	post      func(func())
	store     *Store
	timeout   time.Duration
	log       zerolog.Logger

	started   bool
	ended     bool
	total     int
	completed int
	failed    []string
	pending   map[string]bool
}

// NewGate creates a gate that reports through post.
func NewGate(transport Transport, post func(func()), opts Options) *Gate {
	if post == nil {
		panic("preload.NewGate: post function cannot be nil")
	}
	return &Gate{
		transport: transport,
		post:      post,
		store:     opts.Store,
		timeout:   opts.Timeout,
		log:       opts.Logger,
	}
}

// Preload starts loading the manifest at ref. It returns immediately; cb is
// called through post as entries settle, and once more with Ended set after
// the last one. A manifest that cannot be loaded is reported through
// cb.Error(ref) and ends the run with no entries.
func (g *Gate) Preload(ctx context.Context, ref string, cb Callback) error {
	if g.started {
		return ErrAlreadyStarted
	}
	g.started = true

	go func() {
		entries, err := g.transport.LoadManifest(ctx, ref)
		g.post(func() { g.begin(ctx, ref, entries, err, cb) })
	}()
	return nil
}

// Progress returns the current progress snapshot.
func (g *Gate) Progress() Progress {
	return Progress{
		Completed: g.completed,
		Total:     g.total,
		Failed:    append([]string(nil), g.failed...),
		Ended:     g.ended,
	}
}

func (g *Gate) begin(ctx context.Context, ref string, entries []Entry, err error, cb Callback) {
	if err != nil {
		g.log.Error().Err(err).Str("manifest", ref).Msg("failed to load preload manifest")
		cb.Error(ref)
		g.finish(cb)
		return
	}

	g.pending = make(map[string]bool, len(entries))
	var files []Entry
	for _, e := range entries {
		if e.Kind == KindDirectory {
			if g.store != nil {
				g.store.AddDirectory(e.Path)
			}
			continue
		}
		if g.pending[e.Path] {
			continue
		}
		g.pending[e.Path] = true
		files = append(files, e)
	}
	g.total = len(files)
	g.log.Debug().Str("manifest", ref).Int("total", g.total).Msg("preloading assets")

	if g.total == 0 {
		g.finish(cb)
		return
	}

	for _, e := range files {
		e := e
		fetchCtx, cancel := ctx, context.CancelFunc(func() {})
		var timer *time.Timer
		if g.timeout > 0 {
			fetchCtx, cancel = context.WithTimeout(ctx, g.timeout)
			// Enforced here as well so transports that ignore ctx still settle.
			timer = time.AfterFunc(g.timeout, func() {
				err := fmt.Errorf("%s: %w", e.Path, context.DeadlineExceeded)
				g.post(func() { g.settle(e, Asset{}, err, cb) })
			})
		}
		g.transport.Fetch(fetchCtx, e, func(a Asset, err error) {
			if timer != nil {
				timer.Stop()
			}
			cancel()
			g.post(func() { g.settle(e, a, err, cb) })
		})
	}
}

func (g *Gate) settle(e Entry, a Asset, err error, cb Callback) {
	if g.ended || !g.pending[e.Path] {
		g.log.Debug().Str("asset", e.Path).Msg("ignoring repeated completion")
		return
	}
	delete(g.pending, e.Path)

	if err != nil {
		g.log.Error().Err(err).Str("asset", e.Path).Msg("failed to preload asset")
		g.failed = append(g.failed, e.Path)
		cb.Error(e.Path)
	} else {
		if g.store != nil {
			a.Entry = e
			if a.MIME == "" {
				a.MIME = e.MIME
			}
			g.store.Put(a)
		}
		g.completed++
		cb.Update(g.Progress())
	}

	if g.completed+len(g.failed) == g.total {
		g.finish(cb)
	}
}

func (g *Gate) finish(cb Callback) {
	g.ended = true
	g.log.Debug().
		Int("completed", g.completed).
		Int("failed", len(g.failed)).
		Msg("preload ended")
	cb.Update(g.Progress())
}
