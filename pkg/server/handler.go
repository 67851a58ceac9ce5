package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ubermorgenland/pangolin-mcp/pkg/openapi2mcp"
)

// ShutdownTimeout bounds how long in-flight requests may run after a stop signal.
const ShutdownTimeout = 25 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ErrorResponse is the body of a failed HTTP request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HandleHealth handles the /health endpoint for health checks
func HandleHealth(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, HealthResponse{Status: "healthy", Service: ServerName})
	}
}

// HandleInfo serves the service description.
func HandleInfo(svc *Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeErrorResponse(w, logger, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, logger, http.StatusOK, svc.Info())
	}
}

// NewHTTPHandler mounts the MCP endpoint at basePath next to /health and /info.
func NewHTTPHandler(svc *Service, basePath string, logger *zap.Logger) http.Handler {
	if basePath == "" {
		basePath = openapi2mcp.DefaultBasePath
	}
	mux := http.NewServeMux()
	mux.Handle(basePath, openapi2mcp.HandlerForStreamableHTTP(svc.MCPServer(), basePath))
	mux.HandleFunc("/health", HandleHealth(logger))
	mux.HandleFunc("/info", HandleInfo(svc, logger))
	return mux
}

// RunHTTP serves handler on addr until ctx is cancelled, then shuts down gracefully.
func RunHTTP(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("mcp_url", openapi2mcp.GetStreamableHTTPURL(addr, "")))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return Wrap(err, ErrorTypeNetwork, "HTTP server error")
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server", zap.Duration("timeout", ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return Wrap(err, ErrorTypeNetwork, "HTTP server shutdown error")
		}
		logger.Info("HTTP server shut down gracefully")
		return nil
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func writeErrorResponse(w http.ResponseWriter, logger *zap.Logger, message string, code int) {
	writeJSON(w, logger, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}
