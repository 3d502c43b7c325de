package httpsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agiangrant/boot/preload"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var flaky atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/game/assets.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("t:data/intro.txt:5:text/plain\ni:img/logo.png:16:\nb:img/missing.bin:0:\n"))
	})
	mux.HandleFunc("/game/data/intro.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})
	mux.HandleFunc("/game/img/logo.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(png)
	})
	mux.HandleFunc("/game/flaky.txt", func(w http.ResponseWriter, r *http.Request) {
		if flaky.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &flaky
}

func fetch(t *testing.T, s *Source, e preload.Entry) (preload.Asset, error) {
	t.Helper()
	type result struct {
		a   preload.Asset
		err error
	}
	ch := make(chan result, 1)
	s.Fetch(context.Background(), e, func(a preload.Asset, err error) { ch <- result{a, err} })
	select {
	case r := <-ch:
		return r.a, r.err
	case <-time.After(5 * time.Second):
		t.Fatalf("fetch %s did not complete", e.Path)
		return preload.Asset{}, nil
	}
}

func TestLoadManifestAndFetch(t *testing.T) {
	srv, _ := newServer(t)
	s, err := New(srv.URL+"/game", Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	entries, err := s.LoadManifest(context.Background(), "assets.txt")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	a, err := fetch(t, s, entries[0])
	require.NoError(t, err)
	assert.Equal(t, "hello", string(a.Data))
	assert.Equal(t, "text/plain", a.MIME, "the manifest MIME wins")

	a, err = fetch(t, s, entries[1])
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.MIME, "MIME is sniffed when the manifest has none")

	_, err = fetch(t, s, entries[2])
	assert.ErrorContains(t, err, "404")
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	srv, hits := newServer(t)
	s, err := New(srv.URL+"/game/", Options{RetryMax: 2, Logger: zerolog.Nop()})
	require.NoError(t, err)

	a, err := fetch(t, s, preload.Entry{Kind: preload.KindText, Path: "flaky.txt"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(a.Data))
	assert.Equal(t, int32(2), hits.Load())
}

func TestGateOverHTTP(t *testing.T) {
	srv, _ := newServer(t)
	s, err := New(srv.URL+"/game", Options{MaxConcurrent: 2, RequestsPerSecond: 100, Logger: zerolog.Nop()})
	require.NoError(t, err)

	inbox := make(chan func(), 16)
	store := preload.NewStore()
	gate := preload.NewGate(s, func(fn func()) { inbox <- fn }, preload.Options{Store: store})

	var final preload.Progress
	cb := preload.CallbackFuncs{OnUpdate: func(p preload.Progress) {
		if p.Ended {
			final = p
		}
	}}
	require.NoError(t, gate.Preload(context.Background(), "assets.txt", cb))

	deadline := time.After(5 * time.Second)
	for !final.Ended {
		select {
		case fn := <-inbox:
			fn()
		case <-deadline:
			t.Fatal("preload did not end")
		}
	}

	assert.Equal(t, 3, final.Total)
	assert.Equal(t, 2, final.Completed)
	assert.Equal(t, []string{"img/missing.bin"}, final.Failed)
	assert.Equal(t, 2, store.Len())
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("://nope", Options{})
	assert.Error(t, err)
}
