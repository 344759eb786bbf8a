package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/grove/internal/adapters/http/api"
	"github.com/okian/grove/internal/adapters/http/swagger"
	"github.com/okian/grove/internal/adapters/settings"
	app "github.com/okian/grove/internal/app"
	"github.com/okian/grove/internal/config"
	"github.com/okian/grove/pkg/logger"
	"github.com/okian/grove/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, serverURL string

	root := &cobra.Command{
		Use:           "grove",
		Short:         "Wellness growth engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configPath != "" {
				return os.Setenv(config.EnvFile, configPath)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides "+config.EnvFile+")")
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9080", "base URL of a running grove server")

	root.AddCommand(newServeCmd())
	root.AddCommand(newClientCmds(&serverURL)...)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.Init(metricsOptions(cfg.Metrics)...)

	d, err := newDaemon(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.close(context.Background())

	go metrics.RunSystemCollector(ctx)
	d.watch(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

func metricsOptions(c config.Metrics) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(c.Namespace),
		metrics.WithSubsystem(c.Subsystem),
		metrics.WithRefreshInterval(c.RefreshInterval),
		metrics.WithConstLabels(c.Labels),
		metrics.WithHistogramBuckets(c.Buckets),
	}
}

// daemon is a started service with its store and HTTP server.
type daemon struct {
	cfg    *config.Config
	log    logger.Logger
	store  settings.Store
	svc    *app.Service
	server *http.Server

	unsubscribe func()
}

func newDaemon(ctx context.Context, cfg *config.Config, log logger.Logger) (*daemon, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := settings.Open(ctx, cfg.SettingsBackend, cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	unsubscribe := store.Subscribe(func(c settings.Change) {
		log.Debug(context.Background(), "setting changed", logger.String("key", c.Key), logger.String("value", c.Value))
	})

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithProfile(cfg.Profile),
		app.WithLocation(loc),
	)
	if err := svc.Start(ctx); err != nil {
		unsubscribe()
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}
	if _, err := svc.Activate(ctx); err != nil {
		log.Warn(ctx, "initial activation failed", logger.Error(err))
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)

	return &daemon{
		cfg:   cfg,
		log:   log,
		store: store,
		svc:   svc,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		unsubscribe: unsubscribe,
	}, nil
}

// watch follows external edits of a file-backed store when enabled.
func (d *daemon) watch(ctx context.Context) {
	fs, ok := d.store.(*settings.FileStore)
	if !ok || !d.cfg.WatchSettings {
		return
	}
	go func() {
		err := fs.Watch(ctx, func(err error) {
			d.log.Warn(ctx, "settings reload failed", logger.Error(err))
		})
		if err != nil {
			d.log.Error(ctx, "settings watch stopped", logger.Error(err))
		}
	}()
}

func (d *daemon) close(ctx context.Context) {
	d.unsubscribe()
	if err := d.svc.Stop(ctx); err != nil {
		d.log.Error(ctx, "service stop failed", logger.Error(err))
	}
}
