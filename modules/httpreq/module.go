// Package httpreq provides HTTP operators: httpreq.get and httpreq.request.
package httpreq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"opnet/internal/ctxlog"
	"opnet/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the package's operators.
func (m *Module) Register(r *registry.Registry) {
	r.Register("httpreq", "get", Get)
	r.Register("httpreq", "request", Request)
}

var client = &http.Client{Timeout: 30 * time.Second}

// Get issues a GET to the "url" argument.
func Get(ctx context.Context, args map[string]any) (any, error) {
	url, _ := args["url"].(string)
	return do(ctx, http.MethodGet, url, "", args)
}

// Request issues a request with explicit "method", "url", and optional
// string "body" arguments.
func Request(ctx context.Context, args map[string]any) (any, error) {
	method, _ := args["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	url, _ := args["url"].(string)
	body, _ := args["body"].(string)
	return do(ctx, strings.ToUpper(method), url, body, args)
}

func do(ctx context.Context, method, url, body string, args map[string]any) (any, error) {
	if url == "" {
		return nil, fmt.Errorf("httpreq requires a non-empty \"url\" argument")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request.", "method", method, "url", url)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if headers, ok := args["headers"].(map[string]any); ok {
		for name, value := range headers {
			if s, ok := value.(string); ok {
				req.Header.Set(name, s)
			}
		}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	logger.Info("Received HTTP response.", "status", resp.Status)
	return map[string]any{
		"status_code": float64(resp.StatusCode),
		"body":        string(respBody),
		"duration_ms": float64(time.Since(start).Milliseconds()),
	}, nil
}
