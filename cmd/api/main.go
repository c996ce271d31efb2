package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calebwray/shapepet/internal/config"
	"github.com/calebwray/shapepet/internal/events"
	"github.com/calebwray/shapepet/internal/handlers"
	"github.com/calebwray/shapepet/internal/logger"
	"github.com/calebwray/shapepet/internal/middleware"
	"github.com/calebwray/shapepet/internal/session"
	"github.com/calebwray/shapepet/internal/storage"
	"github.com/calebwray/shapepet/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Shapepet API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"tick_interval", cfg.TickInterval)

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	broadcaster := events.NewBroadcaster(store.Client(), log)
	sessions := session.NewManager(store, broadcaster, log)

	// The simulator keeps every active pet decaying in real time, even
	// between requests. It shares the session manager with the HTTP
	// layer so both sides mutate the same engine instances.
	sim := worker.New(sessions, store, cfg.TickInterval, log)
	go func() {
		if err := sim.Start(); err != nil {
			log.Error("Simulator stopped with error", "error", err)
		}
	}()

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	petHandler := handlers.NewPetHandler(sessions, log)
	mux.Handle("/v1/pets", petHandler)
	mux.Handle("/v1/pets/", petHandler)

	itemsHandler := handlers.NewItemsHandler(log)
	mux.Handle("/v1/items", itemsHandler)

	eventsHandler := handlers.NewEventsHandler(store.Client(), log)
	mux.Handle("/v1/events/pets/", eventsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout removed to enable streaming - the SSE endpoint
		// holds its connection open for the life of the client
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	sim.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Close storage connection
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
