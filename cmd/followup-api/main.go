// Package main provides the patient-facing follow-up API service entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/api/handlers"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/api/middleware"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/collab/submitter"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/collab/verifier"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/config"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/infrastructure/redpanda"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/interview"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/observability/metrics"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/observability/tracing"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/session"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// Tracing
	tcfg := tracing.DefaultConfig("followup-api")
	tcfg.OTLPEndpoint = cfg.Tracing.Endpoint
	tcfg.SampleRate = cfg.Tracing.SampleRate
	tp, err := tracing.Init(ctx, tcfg)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	m := metrics.New()

	// Catalog source: remote catalog-service with Redis cache, falling back
	// to the built-in catalogs when the service is unreachable.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	remoteCfg := catalog.DefaultRemoteConfig(os.Getenv("CATALOG_SERVICE_URL"))
	if remoteCfg.BaseURL == "" {
		remoteCfg.BaseURL = "http://localhost:8081"
	}
	remote := catalog.NewRemoteSource(remoteCfg, rdb, logger)
	builtin, err := catalog.NewStaticSource()
	if err != nil {
		logger.Fatal("built-in catalogs invalid", zap.Error(err))
	}
	catalogs := &catalog.FallbackSource{Primary: remote, Fallback: builtin}

	// Verification client
	vcfg := verifier.Config{
		BaseURL: cfg.Verifier.BaseURL,
		APIKey:  cfg.Verifier.APIKey,
		Timeout: cfg.Verifier.Timeout,
	}
	verif, err := verifier.New(vcfg, logger)
	if err != nil {
		logger.Fatal("failed to create verifier", zap.Error(err))
	}

	// Broker producer and submitter
	pcfg := redpanda.DefaultProducerConfig()
	pcfg.Brokers = cfg.Kafka.Brokers
	producer, err := redpanda.NewProducer(pcfg, logger)
	if err != nil {
		logger.Fatal("failed to create producer", zap.Error(err))
	}
	defer producer.Close()

	sub := submitter.New(producer, logger)

	// Session registry
	var registry *session.Registry
	registry = session.NewRegistry(session.Config{
		TTL:        cfg.Session.TTL,
		CodeLength: cfg.Session.CodeLength,
	}, logger, func(s *session.Session) {
		if !s.Submitted {
			m.InterviewsAbandoned.Inc()
		}
		m.ActiveSessions.Set(float64(registry.Len()))
	})
	registry.StartSweeper()
	defer registry.Stop()

	sessionHandler := handlers.NewSessionHandler(
		registry, catalogs, verif, sub,
		interview.Config{MinAnswered: cfg.Session.MinAnswered},
		m, logger,
	)

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Tracing("followup-api"))

	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			logger.Warn("redis not ready", zap.Error(err))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/sessions", sessionHandler.Routes())
	})

	// Metrics listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		logger.Info("metrics listening", zap.String("addr", cfg.Server.MetricsAddr))
		if err := http.ListenAndServe(cfg.Server.MetricsAddr, mux); err != nil {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
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

	logger.Info("starting follow-up API", zap.String("addr", cfg.Server.ListenAddr))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","service":"followup-api","version":"1.0.0"}`)
}
