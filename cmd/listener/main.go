package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pagecraft/pagecraft/internal/listener"
	"github.com/pagecraft/pagecraft/internal/shared/config"
	"github.com/pagecraft/pagecraft/internal/shared/logging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadListenerConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create logger
	logger := logging.NewLogger("listener", cfg.LogLevel, cfg.Environment)

	// Create service
	svc, err := listener.NewService(cfg, logger)
	if err != nil {
		logger.Error("Failed to create listener service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		cancel()
	}()

	if err := svc.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("Service failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Listener service stopped")
}
