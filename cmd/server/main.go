/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vending machine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Build the zap logger
  3. Initialize the SQLite journal
  4. Build the machine from -config or -scenario
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -db         SQLite journal path (default: ":memory:")
  -config     Machine JSON file (see factory/machine.go); overrides -scenario
  -scenario   Preset machine to start with (default: "default")
  -log-level  debug, info, warn, error (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Default machine, journal kept in memory
  ./server

  # Persist the journal
  ./server -db="./data/vending.db"

  # Start from a custom machine with debug logs
  ./server -config=./machine.json -log-level=debug

SEE ALSO:
  - api/server.go: Router configuration
  - api/scenarios.go: Preset machines
  - store/sqlite/sqlite.go: Journal storage
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/vending-engine/api"
	"github.com/warp/vending-engine/factory"
	"github.com/warp/vending-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", ":memory:", "SQLite journal path")
	configPath := flag.String("config", "", "Machine JSON file (overrides -scenario)")
	scenario := flag.String("scenario", "default", "Preset machine to start with")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logger config: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.String("db", *dbPath), zap.Error(err))
	}
	defer store.Close()

	// Initialize handler and machine
	handler := api.NewHandler(nil, store, logger)
	ctx := context.Background()

	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			logger.Fatal("failed to read machine config", zap.String("path", *configPath), zap.Error(err))
		}
		cfg, err := factory.NewMachineFactory().ParseMachine(string(raw))
		if err != nil {
			logger.Fatal("invalid machine config", zap.String("path", *configPath), zap.Error(err))
		}
		if err := handler.LoadConfig(ctx, cfg); err != nil {
			logger.Fatal("failed to build machine", zap.Error(err))
		}
	} else if err := handler.LoadScenarioByID(ctx, *scenario); err != nil {
		logger.Fatal("failed to load scenario", zap.String("scenario", *scenario), zap.Error(err))
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.Int("port", *port), zap.String("api", fmt.Sprintf("http://localhost:%d/api", *port)))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

// newLogger builds a JSON production logger at the given level.
func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	return cfg.Build()
}
