package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PrinceV-hub/TechDigest/internal/api"
	"github.com/PrinceV-hub/TechDigest/internal/config"
	"github.com/PrinceV-hub/TechDigest/internal/scheduler"
	"github.com/PrinceV-hub/TechDigest/internal/source"
	"github.com/PrinceV-hub/TechDigest/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	// --- Store ---
	st, err := openStore(cfg)
	if err != nil {
		logger.Error("store error", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// --- Adapters + scheduler ---
	adapters, err := source.FromConfigAll(cfg.Sources, cfg.PerSourceLimit)
	if err != nil {
		logger.Error("adapter error", "error", err)
		os.Exit(1)
	}
	sched := scheduler.New(st, adapters, cfg.FetchInterval, cfg.SourceTimeout, logger)

	srv := api.New(st, sched, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Start(ctx)

	// --- HTTP server ---
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	cancel() // stop the scheduler

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// openStore picks Postgres when DATABASE_URL is set, the in-memory store
// otherwise.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemory(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return store.OpenPostgres(ctx, cfg.DatabaseURL)
}
