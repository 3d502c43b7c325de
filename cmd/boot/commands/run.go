package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agiangrant/boot"
	"github.com/agiangrant/boot/host/headless"
	"github.com/agiangrant/boot/internal/logging"
	"github.com/agiangrant/boot/prefs"
	"github.com/agiangrant/boot/preload"
	"github.com/agiangrant/boot/preload/fssource"
	"github.com/agiangrant/boot/preload/httpsource"
)

type runOptions struct {
	configPath  string
	assetsDir   string
	assetsURL   string
	frames      uint64
	fps         int
	width       int
	height      int
	density     float64
	metricsAddr string
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo application on the headless host",
		Long: `Run boots the demo application on a window-less host: it preloads the
manifest from a directory or URL, binds preferences (SQLite when
preferences_path is set) and renders frames at the configured rate.

Examples:
  boot run --assets ./assets --frames 120
  boot run --url https://cdn.example.com/game/ --fps 30
  BOOT_LOG_LEVEL=debug boot run --assets ./assets`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file")
	f.StringVar(&opts.assetsDir, "assets", "", "directory holding the manifest and assets")
	f.StringVar(&opts.assetsURL, "url", "", "base URL of the manifest and assets (overrides asset_base_url)")
	f.Uint64VarP(&opts.frames, "frames", "n", 120, "stop after this many frames (0 runs until interrupted)")
	f.IntVar(&opts.fps, "fps", 0, "frame rate (overrides target_fps)")
	f.IntVar(&opts.width, "width", 1280, "host window width")
	f.IntVar(&opts.height, "height", 720, "host window height")
	f.Float64Var(&opts.density, "density", 1, "host pixel density")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func runDemo(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := boot.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("fps") {
		cfg.TargetFPS = opts.fps
	}
	if opts.assetsURL != "" {
		cfg.AssetBaseURL = opts.assetsURL
	}

	logCfg := cfg.Logging()
	logCfg.Out = cmd.ErrOrStderr()
	logger := logging.New(logCfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	transport, err := newTransport(opts, cfg, logger)
	if err != nil {
		return err
	}

	var subs boot.Subsystems
	if cfg.PreferencesPath != "" {
		db, err := prefs.OpenDB(ctx, cfg.PreferencesPath)
		if err != nil {
			return err
		}
		defer db.Close()
		subs.Preferences = db.Open
	}

	reg := prometheus.NewRegistry()
	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	host := headless.NewHost(opts.width, opts.height, opts.density)
	scheduler := headless.NewScheduler(cfg.TargetFPS)
	defer scheduler.Stop()

	app := &demoApp{frames: opts.frames, out: cmd.OutOrStdout()}
	d, err := boot.New(cfg, func() (boot.Application, error) { return app, nil }, boot.Options{
		Host:       host,
		Surfaces:   &headless.SurfaceFactory{Host: host},
		Scheduler:  scheduler,
		Transport:  transport,
		Subsystems: subs,
		Logger:     &logger,
		Registerer: reg,
	})
	if err != nil {
		return err
	}
	app.stop = func() {
		d.Post(func() {
			if err := d.Dispose(); err != nil {
				logger.Error().Err(err).Msg("dispose failed")
			}
		})
	}

	if err := d.Boot(ctx); err != nil {
		return err
	}
	err = d.Run(ctx)
	if errors.Is(err, context.Canceled) {
		// Interrupted: dispose on the way out so preferences are flushed.
		err = d.Dispose()
	}
	if errors.Is(err, boot.ErrDisposed) {
		return nil
	}
	return err
}

func newTransport(opts *runOptions, cfg boot.Config, logger zerolog.Logger) (preload.Transport, error) {
	switch {
	case opts.assetsDir != "":
		if _, err := os.Stat(opts.assetsDir); err != nil {
			return nil, fmt.Errorf("assets directory: %w", err)
		}
		return fssource.New(os.DirFS(opts.assetsDir), fssource.Options{
			Logger: logging.WithComponent(logger, "fssource"),
		}), nil
	case cfg.AssetBaseURL != "":
		return httpsource.New(cfg.AssetBaseURL, httpsource.Options{
			RetryMax: 3,
			Timeout:  cfg.PreloadTimeout.Duration,
			Logger:   logging.WithComponent(logger, "httpsource"),
		})
	default:
		return nil, nil
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}
