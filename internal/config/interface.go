package config

import "context"

// Loader is the interface for a format-specific definition loader. Load reads
// the document at path, translates it into the format-agnostic model, and
// returns it already normalized and validated.
type Loader interface {
	Load(ctx context.Context, path string) (*Model, error)
}
