package headless

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agiangrant/boot"
	"github.com/agiangrant/boot/preload/fssource"
)

type countingApp struct {
	services *boot.Services
	renders  atomic.Int32
	resizes  atomic.Int32
	paused   atomic.Bool
	greeting atomic.Value
}

func (a *countingApp) Create(s *boot.Services) error {
	a.services = s
	data, err := s.Files.ReadFile("greeting.txt")
	if err != nil {
		return err
	}
	a.greeting.Store(string(data))
	return nil
}

func (a *countingApp) Resize(int, int) error { a.resizes.Add(1); return nil }
func (a *countingApp) Render() error         { a.renders.Add(1); return nil }
func (a *countingApp) Pause()                { a.paused.Store(true) }
func (a *countingApp) Resume()               { a.paused.Store(false) }
func (a *countingApp) Dispose()              {}

func TestHeadlessEndToEnd(t *testing.T) {
	host := NewHost(1024, 768, 2)
	sched := NewScheduler(0)
	defer sched.Stop()

	assets := fstest.MapFS{
		"assets.txt":   {Data: []byte("t:greeting.txt::\n")},
		"greeting.txt": {Data: []byte("hi")},
	}

	cfg := boot.DefaultConfig()
	cfg.UsePhysicalPixels = true
	app := &countingApp{}
	nop := zerolog.Nop()

	d, err := boot.New(cfg, func() (boot.Application, error) { return app, nil }, boot.Options{
		Host:      host,
		Surfaces:  &SurfaceFactory{Host: host},
		Scheduler: sched,
		Transport: fssource.New(assets, fssource.Options{}),
		Logger:    &nop,
	})
	require.NoError(t, err)
	require.NoError(t, d.Boot(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := make(chan error, 1)
	go func() { result <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.FrameCount() >= 5 }, 3*time.Second, time.Millisecond)
	assert.Equal(t, "hi", app.greeting.Load())

	w, h := host.Container().Size()
	assert.Equal(t, 1014, w, "padding is removed from the window")
	assert.Equal(t, 758, h)

	host.Resize(810, 610)
	require.Eventually(t, func() bool { return app.resizes.Load() == 2 }, 3*time.Second, time.Millisecond)
	w, h = d.ViewportSize()
	assert.Equal(t, 1600, w, "the surface follows in device pixels")
	assert.Equal(t, 1200, h)

	host.SetVisible(false)
	require.Eventually(t, app.paused.Load, 3*time.Second, time.Millisecond)

	require.NoError(t, app.services.Net.OpenURI("https://example.com"))
	assert.Equal(t, []string{"https://example.com"}, host.Opened())

	d.Post(func() { _ = d.Dispose() })
	select {
	case err := <-result:
		assert.ErrorIs(t, err, boot.ErrDisposed)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestUnavailableSurface(t *testing.T) {
	host := NewHost(800, 600, 1)
	f := &SurfaceFactory{Host: host, Unavailable: true}
	_, err := f.CreateSurface(host.NewContainer(10, 10), boot.DefaultConfig())
	assert.ErrorIs(t, err, boot.ErrCapabilityUnavailable)
}

func TestSchedulerPaces(t *testing.T) {
	s := NewScheduler(50)
	defer s.Stop()

	fired := make(chan float64, 3)
	start := time.Now()
	for i := 0; i < 3; i++ {
		s.Schedule(func(ts float64) { fired <- ts }, nil)
	}
	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("frame not delivered")
		}
	}
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "three frames at 50fps take at least two intervals")
}

func TestSchedulerStop(t *testing.T) {
	s := NewScheduler(1)
	fired := make(chan struct{}, 2)
	s.Schedule(func(float64) { fired <- struct{}{} }, nil)
	<-fired
	s.Schedule(func(float64) { fired <- struct{}{} }, nil)
	s.Stop()

	select {
	case <-fired:
		t.Fatal("callback ran after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}
