package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/order-forwarder/internal/config"
	"github.com/jogardn/order-forwarder/internal/receiver"
	"github.com/jogardn/order-forwarder/internal/websocket"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadReceiver(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.LogLevel)

	var store receiver.Store = receiver.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pg, err := receiver.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer pg.Close()
		store = pg
	}

	hub := websocket.NewHub("everstox-mock", logger)
	go hub.Run(ctx)

	router := mux.NewRouter()
	receiver.NewHandler(store, hub, cfg.APIKey, logger).Register(router)
	router.HandleFunc("/ws", hub.HandleWebSocket)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting Everstox mock server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down Everstox mock server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server forced to shutdown")
	}

	cancel()
	logger.Info("Everstox mock server gracefully stopped")
}
