package fssource

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agiangrant/boot/preload"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"assets.txt":         {Data: []byte("d:data:0:\nt:data/intro.txt:5:\ni:img/logo.png::\nb:img/gone.bin::\n")},
		"data/intro.txt":     {Data: []byte("hello")},
		"img/logo.png":       {Data: png},
		"sfx/readme.md":      {Data: []byte("# sounds")},
		"assets.toml":        {Data: []byte("[[asset]]\npath = \"img/logo.png\"\nkind = \"i\"\n")},
		"data/levels/1.json": {Data: []byte(`{"w":10}`)},
	}
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
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch %s did not complete", e.Path)
		return preload.Asset{}, nil
	}
}

func TestLoadManifestAndFetch(t *testing.T) {
	s := New(testFS(), Options{})

	entries, err := s.LoadManifest(context.Background(), "assets.txt")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	a, err := fetch(t, s, entries[1])
	require.NoError(t, err)
	assert.Equal(t, "hello", string(a.Data))
	assert.Equal(t, "text/plain; charset=utf-8", a.MIME)

	a, err = fetch(t, s, entries[2])
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.MIME)

	_, err = fetch(t, s, entries[3])
	assert.ErrorContains(t, err, "img/gone.bin")

	entries, err = s.LoadManifest(context.Background(), "/assets.toml")
	require.NoError(t, err)
	assert.Equal(t, []preload.Entry{{Kind: preload.KindImage, Path: "img/logo.png"}}, entries)
}

func TestVerify(t *testing.T) {
	s := New(testFS(), Options{MaxConcurrent: 2})
	ctx := context.Background()

	assert.NoError(t, s.Verify(ctx, []preload.Entry{
		{Kind: preload.KindDirectory, Path: "data"},
		{Kind: preload.KindText, Path: "data/intro.txt", Size: 5},
		{Kind: preload.KindImage, Path: "img/logo.png"},
	}))

	assert.ErrorContains(t, s.Verify(ctx, []preload.Entry{{Kind: preload.KindBinary, Path: "img/gone.bin"}}), "img/gone.bin")
	assert.ErrorContains(t, s.Verify(ctx, []preload.Entry{{Kind: preload.KindText, Path: "data/intro.txt", Size: 99}}), "size")
	assert.ErrorContains(t, s.Verify(ctx, []preload.Entry{{Kind: preload.KindBinary, Path: "data"}}), "kind")
}

func TestGenerate(t *testing.T) {
	entries, err := Generate(context.Background(), testFS(), "data")
	require.NoError(t, err)

	assert.Equal(t, []preload.Entry{
		{Kind: preload.KindText, Path: "data/intro.txt", Size: 5, MIME: "text/plain; charset=utf-8"},
		{Kind: preload.KindDirectory, Path: "data/levels"},
		{Kind: preload.KindText, Path: "data/levels/1.json", Size: 8, MIME: "application/json"},
	}, entries)

	s := New(testFS(), Options{})
	assert.NoError(t, s.Verify(context.Background(), entries))

	_, err = Generate(context.Background(), testFS(), "nope")
	assert.Error(t, err)
}

func TestGateOverFS(t *testing.T) {
	s := New(testFS(), Options{})
	inbox := make(chan func(), 16)
	store := preload.NewStore()
	gate := preload.NewGate(s, func(fn func()) { inbox <- fn }, preload.Options{Store: store})

	var final preload.Progress
	var failed []string
	cb := preload.CallbackFuncs{
		OnUpdate: func(p preload.Progress) {
			if p.Ended {
				final = p
			}
		},
		OnError: func(id string) { failed = append(failed, id) },
	}
	require.NoError(t, gate.Preload(context.Background(), "assets.txt", cb))

	deadline := time.After(2 * time.Second)
	for !final.Ended {
		select {
		case fn := <-inbox:
			fn()
		case <-deadline:
			t.Fatal("preload did not end")
		}
	}

	assert.Equal(t, 3, final.Total, "directories are not fetched")
	assert.Equal(t, 2, final.Completed)
	assert.Equal(t, []string{"img/gone.bin"}, failed)

	files := preload.NewFiles(store)
	assert.True(t, files.IsDirectory("data"))
	assert.Equal(t, []string{"data/intro.txt"}, files.List("data"))
}
