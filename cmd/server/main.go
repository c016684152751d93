package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	appauth "tandem/internal/auth"
	"tandem/internal/blob"
	"tandem/internal/config"
	httpserver "tandem/internal/http"
	"tandem/internal/jobs"
	"tandem/internal/store"
	"tandem/internal/watch"
)

func main() {
	log.Println("Starting Tandem server...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("failed to create db pool: %v", err)
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	stor := store.New(pool)

	blobs, err := blob.New(cfg.AttachmentsDir)
	if err != nil {
		log.Fatalf("failed to initialize attachment storage: %v", err)
	}

	hub := watch.NewHub(pool)
	go hub.Run(ctx)

	sessionManager := appauth.NewSessionManager(cfg)
	authService, err := appauth.NewService(ctx, cfg, stor, sessionManager)
	if err != nil {
		log.Fatalf("failed to initialize auth service: %v", err)
	}

	cleaner := jobs.NewCleaner(stor)
	if err := cleaner.Start(cfg.CleanupSchedule); err != nil {
		log.Fatalf("failed to start cleanup job: %v", err)
	}
	defer cleaner.Stop()

	r := httpserver.NewRouter(cfg, stor, authService, hub, blobs)

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Long-lived SSE connections; no write deadline.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
