package transport

import (
	"fmt"

	"github.com/ledgersim/mcp-ledger-sim/internal/logging"
	"github.com/ledgersim/mcp-ledger-sim/pkg/config"
)

// NewTransport creates a transport instance based on the configuration.
func NewTransport(cfg *config.Settings, logger *logging.Logger) (Transport, error) {
	switch cfg.Transport {
	case "stdio", "":
		return NewStdioTransport(logger), nil

	case "http":
		port := cfg.HTTPPort
		if port == 0 {
			port = 8080
		}
		return NewHTTPTransport(port, logger), nil

	default:
		return nil, fmt.Errorf("unsupported transport type: %s", cfg.Transport)
	}
}
