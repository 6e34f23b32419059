// Package store implements the shared state broker operators exchange values
// through. The Store interface is the only channel operators share state over;
// the in-process implementation is a mutex-guarded map, and the process-backed
// worker pool reaches the same data through a net/rpc server on a unix socket.
package store

import (
	"fmt"
	"time"

	"opnet/internal/config"
)

// Store is the shared state contract. All implementations serialize access
// internally: a Set is fully visible to any Get issued by an operator
// dispatched after the writer completed. Cross-key transactions are not
// offered; dependency ordering is the scheduler's job.
type Store interface {
	// Get returns the value under key, or a *NotFoundError.
	Get(key string) (any, error)
	// Set writes key to value, overwriting any previous entry.
	Set(key string, value any) error
	// GetMany resolves a canonical binding list into an argument map,
	// applying each binding's rename. Any missing source key fails the
	// whole call with a *NotFoundError.
	GetMany(bindings []config.Binding) (map[string]any, error)
	// Exists reports whether key has been written.
	Exists(key string) bool
	// Snapshot returns a copy of the current contents.
	Snapshot() map[string]any
}

// Seed writes every entry of the initial shared-data block into s.
func Seed(s Store, data map[string]any) error {
	for k, v := range data {
		if err := s.Set(k, v); err != nil {
			return fmt.Errorf("seeding shared data %q: %w", k, err)
		}
	}
	return nil
}

// entry is one named value with its write diagnostics. Version and WroteAt
// are informational only; conflict resolution is last write wins under the
// store's lock.
type entry struct {
	value   any
	version uint64
	wroteAt time.Time
}

// NotFoundError reports a read of a key never written. The engine treats it
// as an operator failure for the reading operator, never as a silent default.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("shared key %q not found", e.Key)
}

// SerializationError reports a value that could not cross a process
// boundary. It surfaces at the producing operator's write.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("shared key %q is not serializable: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
