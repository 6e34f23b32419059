package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"

	"opnet/internal/config"
)

// Server exposes a MemStore to worker processes over net/rpc with a JSON
// codec on a unix socket. Values cross the boundary as JSON, so a value a
// worker cannot encode fails its write with a *SerializationError instead of
// being dropped.
//
// The server lives in the engine process for the duration of one run and is
// shut down by the driver once the run drains.
type Server struct {
	backing *MemStore
	socket  string
	ln      net.Listener

	mu     sync.Mutex
	closed bool
	conns  map[net.Conn]struct{}
	wg     sync.WaitGroup
}

// rpcService is the wire-facing receiver. Method names form the on-wire
// contract with Remote.
type rpcService struct {
	backing *MemStore
}

// GetArgs is the request for SharedStore.Get.
type GetArgs struct {
	Key string
}

// GetReply carries one JSON-encoded value plus a found flag.
type GetReply struct {
	Found bool
	Value json.RawMessage
}

// SetArgs is the request for SharedStore.Set.
type SetArgs struct {
	Key   string
	Value json.RawMessage
}

// GetManyArgs is the request for SharedStore.GetMany.
type GetManyArgs struct {
	Bindings []config.Binding
}

// GetManyReply carries the resolved argument map. MissingKey is set instead
// of an rpc error so the caller can rebuild a typed NotFoundError.
type GetManyReply struct {
	MissingKey string
	Args       map[string]json.RawMessage
}

// SnapshotReply carries the full store contents, each value JSON-encoded.
type SnapshotReply struct {
	Data map[string]json.RawMessage
}

func (s *rpcService) Get(args *GetArgs, reply *GetReply) error {
	v, err := s.backing.Get(args.Key)
	var nf *NotFoundError
	if errors.As(err, &nf) {
		reply.Found = false
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return &SerializationError{Key: args.Key, Err: err}
	}
	reply.Found = true
	reply.Value = raw
	return nil
}

func (s *rpcService) Set(args *SetArgs, reply *struct{}) error {
	var v any
	if err := json.Unmarshal(args.Value, &v); err != nil {
		return &SerializationError{Key: args.Key, Err: err}
	}
	return s.backing.Set(args.Key, v)
}

func (s *rpcService) GetMany(args *GetManyArgs, reply *GetManyReply) error {
	resolved, err := s.backing.GetMany(args.Bindings)
	var nf *NotFoundError
	if errors.As(err, &nf) {
		reply.MissingKey = nf.Key
		return nil
	}
	if err != nil {
		return err
	}

	reply.Args = make(map[string]json.RawMessage, len(resolved))
	for k, v := range resolved {
		raw, err := json.Marshal(v)
		if err != nil {
			return &SerializationError{Key: k, Err: err}
		}
		reply.Args[k] = raw
	}
	return nil
}

func (s *rpcService) Snapshot(args *struct{}, reply *SnapshotReply) error {
	snap := s.backing.Snapshot()
	reply.Data = make(map[string]json.RawMessage, len(snap))
	for k, v := range snap {
		raw, err := json.Marshal(v)
		if err != nil {
			return &SerializationError{Key: k, Err: err}
		}
		reply.Data[k] = raw
	}
	return nil
}

// NewServer starts serving backing on a unix socket at socketPath.
func NewServer(backing *MemStore, socketPath string) (*Server, error) {
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listening on store socket: %w", err)
	}

	srv := &Server{
		backing: backing,
		socket:  socketPath,
		ln:      ln,
		conns:   make(map[net.Conn]struct{}),
	}

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName("SharedStore", &rpcService{backing: backing}); err != nil {
		ln.Close()
		return nil, fmt.Errorf("registering store rpc service: %w", err)
	}

	srv.wg.Add(1)
	go srv.acceptLoop(rpcSrv)
	return srv, nil
}

// SocketPath returns the unix socket the server listens on.
func (s *Server) SocketPath() string { return s.socket }

func (s *Server) acceptLoop(rpcSrv *rpc.Server) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return // listener closed
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
		}()
	}
}

// Close stops accepting, drops open worker connections, and waits for the
// serving goroutines to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	err := s.ln.Close()
	s.wg.Wait()
	return err
}
