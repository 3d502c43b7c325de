// Package httpsource is a preload.Transport that fetches the manifest and
// assets over HTTP, relative to a base URL.
package httpsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/agiangrant/boot/preload"
)

// Options configures a Source.
type Options struct {
	// MaxConcurrent bounds in-flight asset requests. Zero means 6, the
	// usual per-host browser limit.
	MaxConcurrent int
	// RequestsPerSecond paces requests. Zero is unlimited.
	RequestsPerSecond float64
	// RetryMax is the number of retries for transient failures.
	RetryMax int
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Source fetches assets from an HTTP server.
type Source struct {
	base    *url.URL
	client  *retryablehttp.Client
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	log     zerolog.Logger
}

var _ preload.Transport = (*Source)(nil)

// New creates a source rooted at baseURL.
func New(baseURL string, opts Options) (*Source, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset base url %q: %w", baseURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 6
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = nil

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Source{
		base:    base,
		client:  client,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		limiter: limiter,
		log:     opts.Logger,
	}, nil
}

// LoadManifest downloads and parses the manifest at ref.
func (s *Source) LoadManifest(ctx context.Context, ref string) ([]preload.Entry, error) {
	data, _, err := s.get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	return preload.ParseManifest(ref, data)
}

// Fetch downloads e in the background and reports through done.
func (s *Source) Fetch(ctx context.Context, e preload.Entry, done func(preload.Asset, error)) {
	go func() {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			done(preload.Asset{}, fmt.Errorf("%s: %w", e.Path, err))
			return
		}
		defer s.sem.Release(1)

		data, contentType, err := s.get(ctx, e.Path)
		if err != nil {
			done(preload.Asset{}, err)
			return
		}

		mime := e.MIME
		if mime == "" {
			mime = mimetype.Detect(data).String()
			if mime == "application/octet-stream" && contentType != "" {
				mime = contentType
			}
		}
		s.log.Debug().Str("asset", e.Path).Int("bytes", len(data)).Str("mime", mime).Msg("fetched asset")
		done(preload.Asset{Entry: e, Data: data, MIME: mime}, nil)
	}()
}

// resolve returns the absolute URL for a manifest-relative path.
func (s *Source) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return s.base.ResolveReference(ref).String(), nil
}

func (s *Source) get(ctx context.Context, path string) ([]byte, string, error) {
	target, err := s.resolve(path)
	if err != nil {
		return nil, "", fmt.Errorf("%s: invalid path: %w", path, err)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("%s: unexpected status %s", path, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to read body: %w", path, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
