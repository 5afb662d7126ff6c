// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from datalang.yaml when present, with DATALANG_*
// environment variables layered on top.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/artpar/datalang/adapters/clock"
	apihttp "github.com/artpar/datalang/adapters/http"
	"github.com/artpar/datalang/adapters/idgen"
	"github.com/artpar/datalang/adapters/metrics"
	"github.com/artpar/datalang/adapters/source"
	"github.com/artpar/datalang/app"
	"github.com/artpar/datalang/config"
	"github.com/artpar/datalang/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	Metrics    *metrics.Collector
	Compiler   *app.CompileService
	Batch      *app.Batch
	HTTPServer *http.Server
}

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath names the YAML config file. Empty means config.DefaultPath,
	// which may be absent.
	ConfigPath string

	// LogLevel overrides logging.level when set.
	LogLevel string

	// LogOutput receives log lines (default: os.Stderr).
	LogOutput io.Writer

	// Version is reported by GET /version.
	Version string
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	holder, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg := holder.Get()

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger, err := NewLogger(cfg.Logging, out)
	if err != nil {
		return nil, err
	}
	holder.SetLogger(logger.With().Str("component", "config").Logger())

	a := &App{
		Logger: logger,
		Config: holder,
	}

	var recorder ports.CompileRecorder
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(reg)
		recorder = a.Metrics
		logger.Debug().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	a.Compiler, err = app.NewCompileService(SettingsFrom(cfg), app.CompileServiceConfig{
		Recorder: recorder,
		IDs:      idgen.UUID{},
		Clock:    clock.Real{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init compile service: %w", err)
	}
	a.Batch = app.NewBatch(a.Compiler, source.Loader{MaxBytes: cfg.Compiler.MaxSourceBytes})

	a.initHTTPServer(cfg, opts.Version)
	a.watchConfig()

	return a, nil
}

// loadConfig opens path as a watched file when it exists. A missing default
// file falls back to environment-only configuration.
func loadConfig(path string) (*config.Holder, error) {
	if path == "" {
		path = config.DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		return config.NewHolder(path, zerolog.Nop())
	}
	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return config.Static(cfg, zerolog.Nop()), nil
}

// SettingsFrom extracts the compile service settings from cfg.
func SettingsFrom(cfg *config.Config) app.Settings {
	return app.Settings{
		StrictReferences: cfg.Compiler.StrictReferences,
		DefaultTarget:    cfg.Compiler.DefaultTarget,
		Package:          cfg.Compiler.Package,
		MaxSourceBytes:   cfg.Compiler.MaxSourceBytes,
	}
}

func (a *App) initHTTPServer(cfg *config.Config, version string) {
	routerCfg := apihttp.RouterConfig{
		Version: version,
		Timeout: cfg.Server.WriteTimeout,
	}
	if a.Metrics != nil {
		routerCfg.Metrics = a.Metrics
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	handler := apihttp.NewCompileHandler(a.Compiler, a.Logger)
	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      apihttp.NewRouter(handler, a.Logger, routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// watchConfig pushes reloaded settings into the running services.
func (a *App) watchConfig() {
	a.Config.OnChange(func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		if err := a.Compiler.Update(SettingsFrom(cfg)); err != nil {
			a.Logger.Error().Err(err).Msg("reloaded compiler settings rejected")
		}
	})
	if a.Metrics != nil {
		a.Config.OnReload(func(err error) {
			a.Metrics.ObserveReload(err, time.Now())
		})
	}
}

// Run starts the HTTP server and blocks until ctx ends or the process is
// interrupted.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln with config hot reload until ctx ends or SIGINT or
// SIGTERM arrives, then shuts down.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Config.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}
	a.Config.WatchSignals()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("starting http server")
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.Config.Stop()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			return err
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// NewLogger builds the process logger. The level is applied globally so a
// config reload can change it.
func NewLogger(cfg config.LoggingConfig, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger(), nil
	}

	return zerolog.New(out).With().Timestamp().Logger(), nil
}
