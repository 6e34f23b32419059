package store

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opnet/internal/config"
)

func TestMemStore_RoundTrip(t *testing.T) {
	s := NewMemStore()

	_, err := s.Get("missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.Key)

	require.NoError(t, s.Set("counter", 41))
	require.NoError(t, s.Set("counter", 42)) // overwrite, last write wins

	v, err := s.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, s.Exists("counter"))
	assert.False(t, s.Exists("ghost"))
	assert.Equal(t, uint64(2), s.Version("counter"))
}

func TestMemStore_GetManyAppliesRenames(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Set("x", "payload"))
	require.NoError(t, s.Set("n", 7))

	args, err := s.GetMany([]config.Binding{
		{Source: "x", Dest: "y"},
		{Source: "n", Dest: "n"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"y": "payload", "n": 7}, args)

	_, err = s.GetMany([]config.Binding{{Source: "absent", Dest: "a"}})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "absent", nf.Key)
}

func TestMemStore_Reset(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Set("old", 1))

	s.Reset(map[string]any{"seed": "fresh"})

	assert.False(t, s.Exists("old"))
	v, err := s.Get("seed")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestMemStore_ConcurrentWriters(t *testing.T) {
	s := NewMemStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%8))
			require.NoError(t, s.Set(key, n))
			_, _ = s.Get(key)
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Snapshot(), 8)
}

func newTestServer(t *testing.T) (*MemStore, *Remote) {
	t.Helper()

	backing := NewMemStore()
	socket := filepath.Join(t.TempDir(), "store.sock")
	srv, err := NewServer(backing, socket)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	remote, err := Dial(socket)
	require.NoError(t, err)
	t.Cleanup(func() { remote.Close() })

	return backing, remote
}

func TestRemote_RoundTripAcrossSocket(t *testing.T) {
	backing, remote := newTestServer(t)

	require.NoError(t, remote.Set("answer", map[string]any{"n": 42.0}))

	// Visible on the engine side.
	v, err := backing.Get("answer")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 42.0}, v)

	// And back through a remote read.
	v, err = remote.Get("answer")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 42.0}, v)
}

func TestRemote_NotFound(t *testing.T) {
	_, remote := newTestServer(t)

	_, err := remote.Get("ghost")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.Key)
	assert.False(t, remote.Exists("ghost"))
}

func TestRemote_GetMany(t *testing.T) {
	backing, remote := newTestServer(t)
	require.NoError(t, backing.Set("src", "value"))

	args, err := remote.GetMany([]config.Binding{{Source: "src", Dest: "renamed"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"renamed": "value"}, args)

	_, err = remote.GetMany([]config.Binding{{Source: "nope", Dest: "x"}})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.Key)
}

func TestRemote_SnapshotCarriesStoreContents(t *testing.T) {
	backing, remote := newTestServer(t)

	require.NoError(t, backing.Set("count", 3.0))
	require.NoError(t, backing.Set("label", "done"))
	require.NoError(t, remote.Set("nested", map[string]any{"ok": true}))

	snap := remote.Snapshot()
	assert.Equal(t, map[string]any{
		"count":  3.0,
		"label":  "done",
		"nested": map[string]any{"ok": true},
	}, snap)
}

func TestRemote_SerializationErrorSurfacesAtWrite(t *testing.T) {
	_, remote := newTestServer(t)

	// Channels have no JSON encoding.
	err := remote.Set("bad", make(chan int))
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "bad", serr.Key)
}
