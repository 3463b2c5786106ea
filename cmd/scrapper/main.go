package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/crashteamdev/ke-data-scrapper/internal/config"
	"github.com/crashteamdev/ke-data-scrapper/internal/container"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("Starting KE data scrapper...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	// Run the application
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Application exited with error: %v", err)
	}

	log.Info("Application finished successfully")
}
