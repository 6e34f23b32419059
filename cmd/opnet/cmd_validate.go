package main

import (
	"os"

	"github.com/spf13/cobra"

	"opnet/internal/app"
)

var validateFlags struct {
	logLevel  string
	logFormat string
}

var validateCmd = &cobra.Command{
	Use:   "validate <definition>",
	Short: "Check a definition without executing it",
	Long: `Load the definition, normalize it, and verify the operator graph:
unique ids, resolvable dependencies, no cycles, registered operator refs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		a := app.New(app.Config{
			Path:      args[0],
			LogLevel:  validateFlags.logLevel,
			LogFormat: validateFlags.logFormat,
		}, os.Stdout)
		return a.Validate(cmd.Context())
	},
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateFlags.logLevel, "log-level", "warn", "Logging level: debug, info, warn, error")
	f.StringVar(&validateFlags.logFormat, "log-format", "text", "Log output format: text or json")
}
