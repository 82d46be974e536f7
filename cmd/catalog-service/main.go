// Package main provides the catalog service entry point: versioned question
// catalogs behind an authenticated publish API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/api/handlers"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/api/middleware"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/config"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/infrastructure/postgres"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/observability/tracing"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	addr := os.Getenv("CATALOG_HTTP_ADDR")
	if addr == "" {
		addr = ":8081"
	}

	ctx := context.Background()

	tcfg := tracing.DefaultConfig("catalog-service")
	tcfg.OTLPEndpoint = cfg.Tracing.Endpoint
	tcfg.SampleRate = cfg.Tracing.SampleRate
	tp, err := tracing.Init(ctx, tcfg)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("database ping failed", zap.Error(err))
	}
	logger.Info("connected to database")

	store := postgres.NewCatalogStore(pool, logger)

	// A fresh database gets the built-in catalogs so the API works out of
	// the box.
	if err := store.Seed(ctx, catalog.Standard(), catalog.AdverseEvent()); err != nil {
		logger.Fatal("catalog seed failed", zap.Error(err))
	}

	// Clinical teams ship wording revisions as YAML files; publish any
	// found at boot. Versions already in the store are skipped.
	if dir := os.Getenv("CATALOG_SEED_DIR"); dir != "" {
		if err := publishFromDir(ctx, store, dir, logger); err != nil {
			logger.Fatal("catalog file publish failed", zap.Error(err))
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	catalogHandler := handlers.NewCatalogHandler(store, rdb, logger)

	apiKeys := cfg.APIKeys
	if len(apiKeys) == 0 {
		apiKeys = map[string]string{"dev-catalog-key": "dev-operator"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Tracing("catalog-service"))

	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(apiKeys))
		r.Mount("/catalogs", catalogHandler.Routes())
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("starting catalog service", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}

// publishFromDir publishes every .yaml catalog definition in dir. A version
// that is already in the store is logged and skipped, so the directory can
// stay in place across restarts.
func publishFromDir(ctx context.Context, store *postgres.CatalogStore, dir string, logger *zap.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read catalog dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		c, err := catalog.LoadYAMLFile(path)
		if err != nil {
			return err
		}
		if err := store.Publish(ctx, c); err != nil {
			if errors.Is(err, postgres.ErrVersionExists) {
				logger.Info("catalog version already published, skipping",
					zap.String("file", entry.Name()),
					zap.String("form", c.Form),
					zap.String("version", c.Version))
				continue
			}
			return err
		}
		logger.Info("published catalog from file",
			zap.String("file", entry.Name()),
			zap.String("form", c.Form),
			zap.String("version", c.Version))
	}
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","service":"catalog-service","version":"1.0.0"}`)
}
