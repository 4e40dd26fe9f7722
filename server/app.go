package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/brettbedarf/webfiles/adapters"
	"github.com/brettbedarf/webfiles/config"
	"github.com/brettbedarf/webfiles/events"
	"github.com/brettbedarf/webfiles/filesystem"
	"github.com/brettbedarf/webfiles/internal/util"
	"github.com/brettbedarf/webfiles/metrics"
	promMetrics "github.com/brettbedarf/webfiles/metrics/prometheus"
	"github.com/brettbedarf/webfiles/sandbox"
	"github.com/spf13/afero"
)

// App is a fully wired file service: backend, validator, event bus,
// executor, handler and listeners.
type App struct {
	Config    *config.Config
	Fs        afero.Fs
	Validator *sandbox.Validator
	Bus       *events.Bus
	Executor  *filesystem.Executor
	Handler   *Handler
	Server    *Server
	logger    util.Logger
}

// NewApp builds an App from cfg using the backend registered in registry
// under cfg.Backend. A nil registry uses the built-in backends.
func NewApp(cfg *config.Config, registry *adapters.Registry) (*App, error) {
	if registry == nil {
		registry = adapters.NewDefaultRegistry()
	}
	if cfg.MetricsAddr != "" {
		metrics.InitRegistry()
	}
	m := promMetrics.NewMetrics()

	fsys, err := registry.NewFs(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CreateBaseDir {
		if err := fsys.MkdirAll(cfg.BaseDir, 0o755); err != nil {
			return nil, fmt.Errorf("create base dir %s: %w", cfg.BaseDir, err)
		}
	}

	v, err := sandbox.NewValidator(cfg.BaseDir, fsys, sandbox.WithSymlinks(cfg.AllowSymlinks))
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(events.WithQueueSize(cfg.EventQueueSize))
	if err := events.RegisterDefaults(bus, m); err != nil {
		return nil, err
	}

	exec := filesystem.NewExecutor(fsys, bus)
	h := NewHandler(v, exec, WithMetrics(m), WithMaxBody(cfg.MaxContentBytes))

	return &App{
		Config:    cfg,
		Fs:        fsys,
		Validator: v,
		Bus:       bus,
		Executor:  exec,
		Handler:   h,
		Server:    New(cfg, h),
		logger:    util.GetLogger("App"),
	}, nil
}

// Start launches event dispatch and binds the listeners.
func (a *App) Start() error {
	if err := a.Bus.Start(); err != nil {
		return err
	}
	if err := a.Server.Serve(); err != nil {
		return errors.Join(err, a.Bus.Close(context.Background()))
	}
	a.logger.Info().
		Str("base_dir", a.Validator.BaseDir()).
		Str("backend", a.Config.Backend).
		Bool("allow_symlinks", a.Config.AllowSymlinks).
		Msg("File service started")
	return nil
}

// Shutdown drains in-flight requests, then the event queue, both bounded by ctx.
func (a *App) Shutdown(ctx context.Context) error {
	srvErr := a.Server.Shutdown(ctx)
	busErr := a.Bus.Close(ctx)
	a.logger.Info().Str("events", a.Bus.Stats().String()).Msg("File service stopped")
	return errors.Join(srvErr, busErr)
}
