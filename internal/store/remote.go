package store

import (
	"encoding/json"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"

	"opnet/internal/config"
)

// Remote is the worker-process view of the shared store: a Store that proxies
// every call to the engine's Server over its unix socket. One Remote holds
// one connection and is safe for concurrent use (net/rpc multiplexes calls).
type Remote struct {
	client *rpc.Client
}

// Dial connects to a store Server's unix socket.
func Dial(socketPath string) (*Remote, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dialing store socket: %w", err)
	}
	return &Remote{client: jsonrpc.NewClient(conn)}, nil
}

// Close releases the connection.
func (r *Remote) Close() error { return r.client.Close() }

// Get implements Store.
func (r *Remote) Get(key string) (any, error) {
	var reply GetReply
	if err := r.client.Call("SharedStore.Get", &GetArgs{Key: key}, &reply); err != nil {
		return nil, retypeRPCError(key, err)
	}
	if !reply.Found {
		return nil, &NotFoundError{Key: key}
	}

	var v any
	if err := json.Unmarshal(reply.Value, &v); err != nil {
		return nil, &SerializationError{Key: key, Err: err}
	}
	return v, nil
}

// Set implements Store. A value JSON cannot encode fails here, at the
// producing side, with a *SerializationError.
func (r *Remote) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	var reply struct{}
	if err := r.client.Call("SharedStore.Set", &SetArgs{Key: key, Value: raw}, &reply); err != nil {
		return retypeRPCError(key, err)
	}
	return nil
}

// GetMany implements Store.
func (r *Remote) GetMany(bindings []config.Binding) (map[string]any, error) {
	var reply GetManyReply
	err := r.client.Call("SharedStore.GetMany", &GetManyArgs{Bindings: bindings}, &reply)
	if err != nil {
		return nil, retypeRPCError("", err)
	}
	if reply.MissingKey != "" {
		return nil, &NotFoundError{Key: reply.MissingKey}
	}

	args := make(map[string]any, len(reply.Args))
	for k, raw := range reply.Args {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &SerializationError{Key: k, Err: err}
		}
		args[k] = v
	}
	return args, nil
}

// Exists implements Store.
func (r *Remote) Exists(key string) bool {
	_, err := r.Get(key)
	return err == nil
}

// Snapshot implements Store. The contents cross the wire in one call; a
// transport failure yields an empty map, matching an empty store.
func (r *Remote) Snapshot() map[string]any {
	var reply SnapshotReply
	if err := r.client.Call("SharedStore.Snapshot", &struct{}{}, &reply); err != nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(reply.Data))
	for k, raw := range reply.Data {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out[k] = v
	}
	return out
}

// retypeRPCError rebuilds typed store errors that net/rpc flattened into
// strings on the wire.
func retypeRPCError(key string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "is not serializable") {
		return &SerializationError{Key: key, Err: err}
	}
	return fmt.Errorf("store rpc: %w", err)
}
