package app

import (
	"context"
	"fmt"
	"net/http"

	"opnet/internal/ctxlog"
)

// startHealthcheckServer runs the health endpoint in the background for the
// lifetime of the process. Long multiprocessing runs use it as a liveness
// probe.
func (a *App) startHealthcheckServer(ctx context.Context, port int) {
	logger := ctxlog.FromContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	addr := fmt.Sprintf(":%d", port)
	go func() {
		logger.Info("Health check server starting.", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Health check server failed.", "error", err)
		}
	}()
}
