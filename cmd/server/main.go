package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/meeting-flow/internal/answerer"
	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/server"
	"github.com/nguyentantai21042004/meeting-flow/internal/session"
	"github.com/nguyentantai21042004/meeting-flow/internal/store"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "Meeting transcription service starting")

	gin.SetMode(gin.ReleaseMode)

	// Initialize dependencies
	st, err := store.New(cfg.Database.URI)
	if err != nil {
		log.Error(ctx, "Failed to connect to database: %v", err)
		os.Exit(1)
	}

	sessions := session.NewManager(st, log, cfg)
	ans := answerer.New(cfg.Answer, log)
	srv := server.New(st, sessions, ans, log)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Reload config on file change; applies to sessions started afterwards
	watcher, err := config.NewWatcher("config.yaml", func(next *config.Config) {
		log.Info(ctx, "Configuration reloaded")
		sessions.ApplyConfig(next)
	})
	if err != nil {
		log.Warn(ctx, "Config watcher unavailable: %v", err)
	} else {
		defer watcher.Stop()
		go func() {
			if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn(ctx, "Config watcher stopped: %v", err)
			}
		}()
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info(ctx, "Listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Server error: %v", err)
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	sessions.StopAll(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "HTTP shutdown: %v", err)
	}

	log.Info(shutdownCtx, "Meeting transcription service stopped")
}
