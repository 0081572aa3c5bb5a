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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/FahmidKDAU/dcr-solution/internal/config"
	"github.com/FahmidKDAU/dcr-solution/internal/handler"
	"github.com/FahmidKDAU/dcr-solution/internal/logger"
	"github.com/FahmidKDAU/dcr-solution/internal/repository/postgres"
	"github.com/FahmidKDAU/dcr-solution/internal/service"
	"github.com/FahmidKDAU/dcr-solution/internal/storage"
	"github.com/FahmidKDAU/dcr-solution/migrations"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	log.Info("starting application", "port", cfg.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	version, err := migrations.Run(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to run migrations", "error", err)
		return
	}
	log.Info("database schema up to date", "version", version)

	repo, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return
	}

	var blobs storage.Blobs
	if cfg.S3.Enabled() {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			log.Error("failed to configure attachment storage", "error", err)
			return
		}
		blobs = store
		log.Info("attachment storage enabled", "bucket", cfg.S3.Bucket)
	} else {
		log.Warn("S3_BUCKET not set, attachment uploads are disabled")
	}

	svc, err := service.New(repo, blobs, log)
	if err != nil {
		log.Error("failed to build service", "error", err)
		return
	}
	h := handler.New(svc, log, handler.Options{
		UserHeader:     cfg.UserHeader,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	})
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(handler.Metrics)

	r.Handle(cfg.MetricsPath, promhttp.Handler())

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "openapi.yaml")
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))

	h.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", addr)
		log.Info("documentation available at", "url", fmt.Sprintf("http://localhost:%d/swagger/index.html", cfg.Port))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	if closer, ok := repo.(interface{ Close() }); ok {
		closer.Close()
	}
	log.Info("server exited properly")
}
