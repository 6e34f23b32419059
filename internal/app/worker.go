package app

import (
	"context"
	"os"

	"opnet/internal/ctxlog"
	"opnet/internal/proc"
	"opnet/internal/registry"
)

// Worker is the entry point of the hidden worker subcommand: one task on
// stdin, one result on stdout, shared store over the given socket. Logs go
// to stderr so they interleave with the parent's without corrupting the
// result stream.
func (a *App) Worker(ctx context.Context, storeSocket string) error {
	logger := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, os.Stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	return proc.RunChild(ctx, os.Stdin, os.Stdout, registry.New(coreModules()...), storeSocket)
}
