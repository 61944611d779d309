package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgersim/mcp-ledger-sim/internal/connection"
	"github.com/ledgersim/mcp-ledger-sim/internal/logging"
	"github.com/ledgersim/mcp-ledger-sim/internal/simulation"
	"github.com/ledgersim/mcp-ledger-sim/internal/storage"
	"github.com/ledgersim/mcp-ledger-sim/internal/tenant"
	"github.com/ledgersim/mcp-ledger-sim/internal/tools"
	"github.com/ledgersim/mcp-ledger-sim/internal/transport"
	"github.com/ledgersim/mcp-ledger-sim/internal/validation"
	"github.com/ledgersim/mcp-ledger-sim/pkg/config"
	"github.com/ledgersim/mcp-ledger-sim/pkg/envelope"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}

	logger := logging.NewLogger(&logging.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	store, err := storage.NewStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	defaultVerbosity, ok := envelope.ParseVerbosity(cfg.Verbosity)
	if !ok {
		defaultVerbosity = envelope.Compact
	}

	manager := tools.NewManager(tools.Config{
		Tenants:     tenant.NewDirectory(),
		Store:       store,
		Injector:    simulation.NewInjector(),
		Connections: connection.NewManager(),
		Engine: validation.NewEngine(validation.Policy{
			ArchivedContactIsError: cfg.Validation.ArchivedContactIsError,
		}),
		DefaultVerbosity: defaultVerbosity,
		Logger:           logger,
	})

	server := transport.NewServer(manager, logger)

	tr, err := transport.NewTransport(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create transport: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Server starting", "transport", tr.Name(), "storage", cfg.StorageType)
	if err := tr.Start(ctx, server.HandleRequest); err != nil && err != context.Canceled {
		log.Fatalf("Server error: %v", err)
	}
}
