package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pagecraft/pagecraft/internal/database"
	"github.com/pagecraft/pagecraft/internal/domainverifier"
	"github.com/pagecraft/pagecraft/internal/shared/config"
	"github.com/pagecraft/pagecraft/internal/shared/logging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDomainVerifierConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create logger
	logger := logging.NewLogger("domaind", cfg.LogLevel, cfg.Environment)

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Create service
	svc, err := domainverifier.NewService(cfg, db, logger)
	if err != nil {
		logger.Error("Failed to create domain verifier service", "error", err)
		os.Exit(1)
	}

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

	if err := svc.Start(ctx); err != nil {
		logger.Error("Service failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Service stopped")
}
