// Package app is the composition root: it wires the logger, the definition
// loaders, the operator registry, and the variation driver together behind
// the CLI commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"opnet/internal/config"
	"opnet/internal/ctxlog"
	"opnet/internal/driver"
	"opnet/internal/registry"
)

// App carries everything one invocation needs.
type App struct {
	cfg Config
	out io.Writer
}

// New builds an app from the resolved configuration. out receives the
// human-readable report; logs go to stderr.
func New(cfg Config, out io.Writer) *App {
	return &App{cfg: cfg, out: out}
}

// Run loads the definition at cfg.Path, executes it, renders the report,
// and returns an error when the run failed.
func (a *App) Run(ctx context.Context) error {
	logger := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, os.Stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	model, err := a.load(ctx)
	if err != nil {
		return err
	}
	a.applyOverrides(model)

	if a.cfg.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.cfg.HealthcheckPort)
	}

	report, err := driver.Run(ctx, model, registry.New(coreModules()...), driver.Options{})
	if err != nil {
		return err
	}

	renderReport(a.out, report)
	if report.Failed() {
		return fmt.Errorf("network %q finished with failures", model.Name)
	}
	return nil
}

// Validate loads and validates the definition without executing anything.
// Unknown operator refs are caught here too.
func (a *App) Validate(ctx context.Context) error {
	logger := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, os.Stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	model, err := a.load(ctx)
	if err != nil {
		return err
	}

	reg := registry.New(coreModules()...)
	for _, op := range model.Operators {
		if _, err := reg.Resolve(op.Ref); err != nil {
			return fmt.Errorf("operator %q: %w", op.ID, err)
		}
	}

	fmt.Fprintf(a.out, "%s: ok (%d operators, %d repeat groups)\n",
		a.cfg.Path, len(model.Operators), model.RepeatGroups)
	return nil
}

// applyOverrides layers CLI flags over the definition header.
func (a *App) applyOverrides(model *config.Model) {
	if a.cfg.Groups > 0 {
		model.RepeatGroups = a.cfg.Groups
	}
	if a.cfg.Workers > 0 {
		model.Workers = a.cfg.Workers
	}
	if a.cfg.Multiprocessing {
		model.Multiprocessing = true
	}
	if a.cfg.Sequential {
		model.Sequential = true
	}
}
