package main

import (
	"io"

	"github.com/spf13/cobra"

	"opnet/internal/app"
)

var workerFlags struct {
	storeSocket string
	logLevel    string
	logFormat   string
}

// workerCmd is the child-process entry point for multiprocessing runs. The
// engine spawns it with one task on stdin and reads one result from stdout;
// it is not part of the user-facing surface.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Execute one operator task from stdin (internal)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cmd.SetOut(io.Discard)
		a := app.New(app.Config{
			LogLevel:  workerFlags.logLevel,
			LogFormat: workerFlags.logFormat,
		}, io.Discard)
		return a.Worker(cmd.Context(), workerFlags.storeSocket)
	},
}

func init() {
	f := workerCmd.Flags()
	f.StringVar(&workerFlags.storeSocket, "store-socket", "", "Unix socket path of the shared store server")
	f.StringVar(&workerFlags.logLevel, "log-level", "warn", "Logging level: debug, info, warn, error")
	f.StringVar(&workerFlags.logFormat, "log-format", "text", "Log output format: text or json")
	_ = workerCmd.MarkFlagRequired("store-socket")
}
