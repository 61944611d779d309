package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ledgersim/mcp-ledger-sim/internal/logging"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

const maxHTTPBodyBytes = 10 * 1024 * 1024

// HTTPTransport implements the Transport interface over HTTP. JSON-RPC
// requests POST to /rpc; application-level failures still return HTTP 200
// with the error inside the JSON-RPC body.
type HTTPTransport struct {
	port    int
	server  *http.Server
	handler RequestHandler
	logger  *logging.Logger
	mu      sync.RWMutex
}

// NewHTTPTransport creates a new HTTP transport on the given port.
func NewHTTPTransport(port int, logger *logging.Logger) *HTTPTransport {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &HTTPTransport{port: port, logger: logger}
}

// Start begins listening for HTTP requests
func (t *HTTPTransport) Start(ctx context.Context, handler RequestHandler) error {
	t.mu.Lock()
	t.handler = handler

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", t.handleRPC)
	mux.HandleFunc("/health", t.handleHealth)

	addr := fmt.Sprintf(":%d", t.port)
	t.server = &http.Server{
		Addr:         addr,
		Handler:      t.corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	t.mu.Unlock()

	t.logger.WithContext(ctx).Info("HTTP transport starting", "address", addr)

	errChan := make(chan error, 1)
	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logger.WithContext(ctx).WithError(err).Error("HTTP server error")
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		t.logger.WithContext(ctx).Info("HTTP transport context cancelled")
		return t.Stop(context.Background())
	case err := <-errChan:
		return err
	}
}

// Stop gracefully shuts down the HTTP server
func (t *HTTPTransport) Stop(ctx context.Context) error {
	t.mu.RLock()
	server := t.server
	t.mu.RUnlock()

	if server == nil {
		return nil
	}
	t.logger.WithContext(ctx).Info("HTTP transport stopping")
	return server.Shutdown(ctx)
}

// Name returns the name of the transport
func (t *HTTPTransport) Name() string {
	return "http"
}

// handleRPC handles JSON-RPC requests
func (t *HTTPTransport) handleRPC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		t.sendJSONResponse(w, CreateFallbackErrorResponse(nil, "Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && contentType != "application/json-rpc" {
		status := errors.HTTPStatusFromCode(errors.ErrCodeTransportInvalidParams)
		t.sendJSONResponse(w, CreateFallbackErrorResponse(nil, "Content-Type must be application/json or application/json-rpc"), status)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxHTTPBodyBytes))
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Error("Failed to read request body")
		t.sendJSONResponse(w, CreateFallbackErrorResponse(nil, "Failed to read request body"), errors.HTTPStatusCode(errors.Wrap(err, errors.ErrCodeTransportUnmarshal, "unreadable body")))
		return
	}
	defer r.Body.Close()

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.logger.WithContext(ctx).WithError(err).Warn("Failed to parse JSON-RPC request")
		// Parse errors still return HTTP 200 per JSON-RPC over HTTP.
		t.sendJSONResponse(w, NewParseError(), http.StatusOK)
		return
	}

	start := time.Now()
	resp := t.handler(ctx, &req)
	duration := time.Since(start)

	if resp.Error != nil {
		t.logger.WithContext(ctx).Warn("Request completed with error",
			"method", req.Method, "id", req.ID, "duration", duration, "error", resp.Error.Message)
	} else {
		t.logger.WithContext(ctx).Debug("Request completed",
			"method", req.Method, "id", req.ID, "duration", duration)
	}

	t.sendJSONResponse(w, resp, http.StatusOK)
}

// handleHealth handles health check requests
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"transport": "http",
		"timestamp": time.Now().Unix(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// corsMiddleware adds CORS headers to responses
func (t *HTTPTransport) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sendJSONResponse sends a JSON response with the given status
func (t *HTTPTransport) sendJSONResponse(w http.ResponseWriter, resp *JSONRPCResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		// Headers are already sent; the fallback write is best effort.
		fallback := CreateFallbackErrorResponse(resp.ID, "Failed to encode response")
		if fallbackBytes, fallbackErr := json.Marshal(fallback); fallbackErr == nil {
			w.Write(fallbackBytes)
		}
	}
}
