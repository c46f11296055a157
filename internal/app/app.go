package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/planner"
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/internal/variable"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx      context.Context
	outW     io.Writer // results
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger writing to logW
// and a registry holding the handlers of the given modules, or of the core
// modules when none are given. Manifests are loaded by LoadModules.
func NewApp(ctx context.Context, outW, logW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	variable.SetIgnoreCase(cfg.IgnoreCase)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

func (a *App) plannerOptions() planner.Options {
	return planner.Options{
		MaxGenericRepeat: a.config.MaxGenericRepeat,
		MaxStates:        a.config.MaxStates,
	}
}
