package app

// Config holds the resolved CLI options for one invocation.
type Config struct {
	// Path points at the network definition file (.yaml, .yml, .json, .hcl).
	Path string

	// Groups overrides the definition's repeat group count when positive.
	Groups int
	// Workers overrides the definition's worker count when positive.
	Workers int
	// Multiprocessing forces the process-backed pool on.
	Multiprocessing bool
	// Sequential forces one-at-a-time execution.
	Sequential bool

	LogLevel  string
	LogFormat string

	// HealthcheckPort exposes GET /health when positive.
	HealthcheckPort int
}
