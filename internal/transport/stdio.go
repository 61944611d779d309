package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ledgersim/mcp-ledger-sim/internal/logging"
	"github.com/ledgersim/mcp-ledger-sim/pkg/errors"
)

// StdioTransport implements the Transport interface for stdio
// communication. Responses go to stdout; all logging goes to stderr so the
// JSON-RPC stream stays clean.
type StdioTransport struct {
	scanner *bufio.Scanner
	out     io.Writer
	running bool
	logger  *logging.Logger
}

// NewStdioTransport creates a new stdio transport
func NewStdioTransport(logger *logging.Logger) *StdioTransport {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &StdioTransport{
		scanner: bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		logger:  logger,
	}
}

// Start begins listening for requests on stdin
func (t *StdioTransport) Start(ctx context.Context, handler RequestHandler) error {
	t.running = true
	t.logger.WithContext(ctx).Info("Stdio transport starting")

	for t.running && t.scanner.Scan() {
		select {
		case <-ctx.Done():
			t.logger.WithContext(ctx).Info("Stdio transport context cancelled")
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(t.scanner.Text())
		if line == "" {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.logger.WithContext(ctx).WithError(err).Error("Failed to parse JSON-RPC request")
			parseErr := errors.Wrap(err, errors.ErrCodeTransportInvalidJSON, "Invalid JSON format")
			t.sendResponse(ctx, ToJSONRPCResponse(nil, parseErr))
			continue
		}

		start := time.Now()
		resp := handler(ctx, &req)
		duration := time.Since(start)

		if resp.Error != nil {
			t.logger.WithContext(ctx).Warn("Request completed with error",
				"method", req.Method, "id", req.ID, "duration", duration, "error", resp.Error.Message)
		} else {
			t.logger.WithContext(ctx).Debug("Request completed",
				"method", req.Method, "id", req.ID, "duration", duration)
		}

		t.sendResponse(ctx, resp)
	}

	if err := t.scanner.Err(); err != nil && err != io.EOF {
		t.logger.WithContext(ctx).WithError(err).Error("Error reading from stdin")
		return fmt.Errorf("error reading from stdin: %w", err)
	}

	t.logger.WithContext(ctx).Info("Stdio transport stopped")
	return nil
}

// Stop gracefully shuts down the transport
func (t *StdioTransport) Stop(ctx context.Context) error {
	t.running = false
	return nil
}

// Name returns the name of the transport
func (t *StdioTransport) Name() string {
	return "stdio"
}

// sendResponse writes one JSON-RPC response line to stdout
func (t *StdioTransport) sendResponse(ctx context.Context, resp *JSONRPCResponse) {
	respBytes, err := json.Marshal(resp)
	if err != nil {
		t.logger.WithContext(ctx).WithError(err).Error("Failed to marshal response")
		fallback := CreateFallbackErrorResponse(resp.ID, "Failed to serialize response")
		if fallbackBytes, fallbackErr := json.Marshal(fallback); fallbackErr == nil {
			fmt.Fprintln(t.out, string(fallbackBytes))
		}
		return
	}
	fmt.Fprintln(t.out, string(respBytes))
}
