package main

import (
	"os"

	"github.com/spf13/cobra"

	"opnet/internal/app"
)

var runFlags struct {
	groups          int
	workers         int
	multiprocessing bool
	sequential      bool
	logLevel        string
	logFormat       string
	healthcheckPort int
}

var runCmd = &cobra.Command{
	Use:   "run <definition>",
	Short: "Execute an operator network definition",
	Long: `Execute the network defined in the given file.

Usage:
  opnet run network.yaml
  opnet run network.hcl --groups 5 --workers 8
  opnet run network.json --multiprocessing

The definition format is picked from the file extension. Flags override
the definition header where given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		a := app.New(app.Config{
			Path:            args[0],
			Groups:          runFlags.groups,
			Workers:         runFlags.workers,
			Multiprocessing: runFlags.multiprocessing,
			Sequential:      runFlags.sequential,
			LogLevel:        runFlags.logLevel,
			LogFormat:       runFlags.logFormat,
			HealthcheckPort: runFlags.healthcheckPort,
		}, os.Stdout)
		return a.Run(cmd.Context())
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.groups, "groups", 0, "Override the number of repeat groups")
	f.IntVar(&runFlags.workers, "workers", 0, "Override the worker count")
	f.BoolVar(&runFlags.multiprocessing, "multiprocessing", false, "Run operators in child processes")
	f.BoolVar(&runFlags.sequential, "sequential", false, "Run operators one at a time")
	f.StringVar(&runFlags.logLevel, "log-level", "info", "Logging level: debug, info, warn, error")
	f.StringVar(&runFlags.logFormat, "log-format", "text", "Log output format: text or json")
	f.IntVar(&runFlags.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server, 0 disables it")
}
