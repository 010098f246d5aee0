package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tharunkunamalla/realtime-editor/config"
	"github.com/Tharunkunamalla/realtime-editor/internal/collab"
	"github.com/Tharunkunamalla/realtime-editor/internal/execution"
	"github.com/Tharunkunamalla/realtime-editor/internal/registry"
	"github.com/Tharunkunamalla/realtime-editor/internal/storage"
	httpx "github.com/Tharunkunamalla/realtime-editor/internal/transport/http"
	"github.com/Tharunkunamalla/realtime-editor/internal/transport/ws"
	"github.com/Tharunkunamalla/realtime-editor/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting realtime-editor",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- durable store ---
	ctx := context.Background()
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()
	slog.Info("storage ready", "backend", cfg.Storage.Backend)

	// --- execution gateway ---
	gateway, err := execution.FromConfig(cfg.Execution)
	if err != nil {
		log.Fatalf("execution: %v", err)
	}

	// --- session engine ---
	reg := registry.New()
	hub := ws.NewHub()
	svc := collab.NewService(reg, store, hub,
		cfg.Collab.TextDebounceDuration(), cfg.Collab.LanguageDebounceDuration())
	wsServer := ws.NewServer(hub, svc)

	// --- HTTP ---
	handler := httpx.NewHandler(gateway)
	router := httpx.NewRouter(handler, wsServer)
	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	svc.Shutdown(ctxShutdown) // drain pending room writes
	slog.Info("stopped")
}
