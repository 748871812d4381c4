package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/trolley-tracker/internal/catalog"
	"github.com/trolley-tracker/internal/common/alert"
	"github.com/trolley-tracker/internal/common/config"
	"github.com/trolley-tracker/internal/common/logger"
	"github.com/trolley-tracker/internal/tracker"
	"github.com/trolley-tracker/internal/webui"
)

func main() {
	// Load .env file if it exists; a plain environment is fine too.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(
		logger.ParseLevel(cfg.Logging.Level),
		logger.ConsoleWriter(),
		logger.FileWriter(cfg.Logging.FilePath),
	)

	log.Info("Trolley Tracker starting",
		"version", "1.0.0",
		"log_level", cfg.Logging.Level,
		"base_url", cfg.Tracker.BaseURL,
		"poll_interval", cfg.Tracker.PollInterval,
	)

	// Stop catalog: external file when configured, built-in line otherwise
	cat := catalog.Default()
	if cfg.Tracker.CatalogFile != "" {
		cat, err = catalog.LoadFile(cfg.Tracker.CatalogFile)
		if err != nil {
			log.Fatal("Failed to load stop catalog", "error", err, "file", cfg.Tracker.CatalogFile)
		}
		log.Info("Loaded stop catalog", "file", cfg.Tracker.CatalogFile)
	}

	alerts := alert.NewClient(cfg.Alert.WebhookURL)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Start the tracker manager (selection state + location poller)
	manager := tracker.NewManager(cfg.Tracker, cat, alerts, cfg.Alert.FailureThreshold, log)
	if err := manager.Start(ctx); err != nil {
		log.Fatal("Failed to start tracker manager", "error", err)
	}

	// Start the presentation surface
	ui := webui.NewServer(manager.Coordinator(), log)
	httpServer := &http.Server{
		Addr:    cfg.UI.ListenAddr,
		Handler: ui.Routes(),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Presentation surface listening", "addr", cfg.UI.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Presentation surface error", "error", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Presentation surface shutdown error", "error", err)
	}

	manager.Stop()
	cancel()
	wg.Wait()

	log.Info("Trolley Tracker stopped")
}
