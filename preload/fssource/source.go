// Package fssource is a preload.Transport over an fs.FS: a directory on disk,
// an embed.FS or an fstest.MapFS.
package fssource

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/agiangrant/boot/preload"
)

// Options configures a Source.
type Options struct {
	// MaxConcurrent bounds concurrent reads. Zero means 4.
	MaxConcurrent int
	Logger        zerolog.Logger
}

// Source reads assets from an fs.FS.
type Source struct {
	fsys fs.FS
	sem  *semaphore.Weighted
	n    int
	log  zerolog.Logger
}

var _ preload.Transport = (*Source)(nil)

// New creates a source reading from fsys.
func New(fsys fs.FS, opts Options) *Source {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	return &Source{
		fsys: fsys,
		sem:  semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		n:    opts.MaxConcurrent,
		log:  opts.Logger,
	}
}

// LoadManifest reads and parses the manifest file ref.
func (s *Source) LoadManifest(_ context.Context, ref string) ([]preload.Entry, error) {
	data, err := fs.ReadFile(s.fsys, clean(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return preload.ParseManifest(ref, data)
}

// Fetch reads e on a background goroutine and reports through done.
func (s *Source) Fetch(ctx context.Context, e preload.Entry, done func(preload.Asset, error)) {
	go func() {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			done(preload.Asset{}, fmt.Errorf("%s: %w", e.Path, err))
			return
		}
		defer s.sem.Release(1)

		data, err := fs.ReadFile(s.fsys, clean(e.Path))
		if err != nil {
			done(preload.Asset{}, fmt.Errorf("%s: %w", e.Path, err))
			return
		}
		mime := e.MIME
		if mime == "" {
			mime = mimetype.Detect(data).String()
		}
		done(preload.Asset{Entry: e, Data: data, MIME: mime}, nil)
	}()
}

// Verify checks that every entry exists with the declared kind and, when
// given, the declared size. It returns the first problem found.
func (s *Source) Verify(ctx context.Context, entries []preload.Entry) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.n)

	for _, e := range entries {
		e := e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := fs.Stat(s.fsys, clean(e.Path))
			if err != nil {
				return fmt.Errorf("%s: %w", e.Path, err)
			}
			if (e.Kind == preload.KindDirectory) != info.IsDir() {
				return fmt.Errorf("%s: kind %q does not match file type", e.Path, e.Kind)
			}
			if !info.IsDir() && e.Size > 0 && e.Size != info.Size() {
				return fmt.Errorf("%s: size %d, manifest says %d", e.Path, info.Size(), e.Size)
			}
			return nil
		})
	}
	return g.Wait()
}

// Generate walks root and returns a manifest entry for every file and
// directory below it, sorted by path. Kinds and MIME types are sniffed from
// file contents.
func Generate(ctx context.Context, fsys fs.FS, root string) ([]preload.Entry, error) {
	var (
		mu      sync.Mutex
		entries []preload.Entry
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	root = clean(root)
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root && d.IsDir() {
			return nil
		}
		if d.IsDir() {
			mu.Lock()
			entries = append(entries, preload.Entry{Kind: preload.KindDirectory, Path: p})
			mu.Unlock()
			return nil
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			mime := mimetype.Detect(data)
			mu.Lock()
			entries = append(entries, preload.Entry{
				Kind: preload.KindForMIME(mime.String()),
				Path: p,
				Size: int64(len(data)),
				MIME: mime.String(),
			})
			mu.Unlock()
			return nil
		})
		return nil
	})
	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate manifest: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func clean(p string) string {
	p = path.Clean("/" + p)[1:]
	if p == "" {
		return "."
	}
	return p
}
