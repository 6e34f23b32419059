// Package socketio provides the socketio.request operator: it connects to a
// Socket.IO server, emits one event, waits for a response event, and
// disconnects.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"opnet/internal/ctxlog"
	"opnet/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's operators.
func (m *Module) Register(r *registry.Registry) {
	r.Register("socketio", "request", Request)
}

const defaultTimeout = 15 * time.Second

type opResult struct {
	value any
	err   error
}

// Request connects to the "url" argument, emits "emit_event" carrying the
// optional "data" argument, and waits for "on_event". The response payload
// is returned under "response_data".
func Request(ctx context.Context, args map[string]any) (any, error) {
	rawURL, _ := args["url"].(string)
	emitEvent, _ := args["emit_event"].(string)
	onEvent, _ := args["on_event"].(string)
	if rawURL == "" || emitEvent == "" || onEvent == "" {
		return nil, fmt.Errorf("socketio.request requires \"url\", \"emit_event\", and \"on_event\" arguments")
	}
	namespace, _ := args["namespace"].(string)

	timeout := defaultTimeout
	if raw, ok := args["timeout"].(string); ok {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed timeout %q: %w", raw, err)
		}
		timeout = parsed
	}

	logger := ctxlog.FromContext(ctx).With("url", rawURL)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	io, err := connect(opCtx, logger, rawURL, namespace, args)
	if err != nil {
		return nil, err
	}
	defer io.Disconnect()

	done := make(chan opResult, 1)
	io.Once(types.EventName(onEvent), func(data ...any) {
		logger.Debug("Response event received.", "event", onEvent)
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}
		done <- opResult{value: map[string]any{"response_data": payload}}
	})

	logger.Info("Emitting event.", "event", emitEvent)
	io.Emit(emitEvent, args["data"])

	select {
	case <-opCtx.Done():
		return nil, fmt.Errorf("timed out after %v waiting for event %q", timeout, onEvent)
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		logger.Info("Received response event.", "event", onEvent)
		return res.value, nil
	}
}

func connect(ctx context.Context, logger *slog.Logger, rawURL, namespace string, args map[string]any) (*socket.Socket, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))
	if insecure, _ := args["insecure_skip_verify"].(bool); insecure {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("connect_error: %v", errs[0])
		}
		connectChan <- err
	})

	logger.Debug("Initiating connection.")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return io, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out waiting for socket.io connection")
	}
}
