package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"storefront-catalog-service/internal/api"
	"storefront-catalog-service/internal/cache"
	"storefront-catalog-service/internal/config"
	"storefront-catalog-service/internal/feed"
	"storefront-catalog-service/internal/pricing"
	"storefront-catalog-service/internal/store"
)

const serviceName = "storefront-catalog-service"

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, relying on system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("error loading configuration")
	}

	log := newLogger(cfg.LogLevel)
	log.WithFields(logrus.Fields{"app_env": cfg.AppEnv, "log_level": cfg.LogLevel}).Info("starting service")

	// Pricing resolver and feed loader; the initial snapshot is resolved at
	// startup time.
	resolver := pricing.NewResolver(pricing.NewLogReporter(log))
	loader := feed.NewLoader(cfg.Feed.Path, resolver, cfg.Catalog.PurchaseQuantity, log)

	catalogStore := store.NewMemoryStore()
	products, err := loader.Load(time.Now())
	if err != nil {
		log.WithError(err).Fatal("failed to load catalog feed")
	}
	revision, err := catalogStore.Replace(context.Background(), products)
	if err != nil {
		log.WithError(err).Fatal("failed to seed catalog store")
	}
	log.WithFields(logrus.Fields{"revision": revision, "products": len(products)}).Info("catalog snapshot ready")

	resultCache := cache.New(cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.TTL, log)
	defer resultCache.Close()

	handler := api.NewHTTPHandler(catalogStore, loader, resultCache, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	registerHealthCheck(router)
	handler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      router,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		log.WithField("port", cfg.HttpServer.Port).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	waitForShutdown(log, httpServer)
	log.Info("service shutdown complete")
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("log_level", level).Warn("unknown log level, using info")
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

func registerHealthCheck(router *chi.Mux) {
	router.Get("/api/v1/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": serviceName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func waitForShutdown(log *logrus.Logger, httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	received := <-sigChan
	log.WithField("signal", received.String()).Info("starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server graceful shutdown failed")
	}
}
