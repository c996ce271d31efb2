package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calebwray/shapepet/internal/config"
	"github.com/calebwray/shapepet/internal/events"
	"github.com/calebwray/shapepet/internal/logger"
	"github.com/calebwray/shapepet/internal/session"
	"github.com/calebwray/shapepet/internal/storage"
	"github.com/calebwray/shapepet/internal/worker"
)

// Headless simulation deployment: runs the tick loop without the HTTP
// API. Run this OR cmd/api, not both against the same Redis, or the
// two processes will advance the same pets independently.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Shapepet Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"tick_interval", cfg.TickInterval)

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	broadcaster := events.NewBroadcaster(store.Client(), log)
	sessions := session.NewManager(store, broadcaster, log)

	sim := worker.New(sessions, store, cfg.TickInterval, log)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := sim.Start(); err != nil {
			log.Error("Simulator error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, ticking active pets...")

	<-quit
	log.Info("Worker shutdown signal received")

	sim.Stop()

	// Give the loop time to finish its current tick
	time.Sleep(2 * time.Second)

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Worker exited")
}
