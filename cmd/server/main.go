package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"phraseguard/internal/platform/config"
	"phraseguard/internal/platform/httpserver"
	"phraseguard/internal/platform/logger"
)

// main wires dependencies, starts the HTTP server and the background
// workers, and drains them on SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	workers, cancelWorkers := context.WithCancel(context.Background())
	embeddingDone := make(chan struct{})
	go func() {
		defer close(embeddingDone)
		if a.embedding == nil {
			return
		}
		if err := a.embedding.Run(workers); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("embedding queue stopped", "error", err)
		}
	}()

	outboxDone := make(chan struct{})
	go func() {
		defer close(outboxDone)
		if a.outbox == nil {
			return
		}
		if err := a.outbox.Run(workers); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("event sink stopped", "error", err)
		}
	}()

	srv := httpserver.New(cfg.Server, a.handler)
	go func() {
		log.Info("starting phraseguard", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if err := a.queue.Shutdown(shutdownCtx); err != nil {
		log.Error("check queue shutdown incomplete", "error", err)
	}
	cancelWorkers()
	<-embeddingDone
	<-outboxDone
	if a.outbox != nil {
		a.outbox.Flush(shutdownCtx)
	}
}
