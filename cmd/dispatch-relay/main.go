// Package main provides the dispatch relay entry point: consumes submitted
// summaries from the broker and delivers them to the clinical endpoint with
// exactly-once semantics.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/collab/submitter"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/config"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/infrastructure/redpanda"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/observability/metrics"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/observability/tracing"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/pkg/circuitbreaker"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/pkg/idempotency"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/pkg/workerpool"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	tcfg := tracing.DefaultConfig("dispatch-relay")
	tcfg.OTLPEndpoint = cfg.Tracing.Endpoint
	tcfg.SampleRate = cfg.Tracing.SampleRate
	tp, err := tracing.Init(ctx, tcfg)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	m := metrics.New()

	// Database for the idempotency inbox
	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("database ping failed", zap.Error(err))
	}

	inbox := idempotency.NewInbox(pool, idempotency.DefaultInboxConfig(), logger)
	inbox.StartCleanup()
	defer inbox.Stop()

	if recovered, err := inbox.RecoverStaleEntries(ctx); err != nil {
		logger.Warn("stale entry recovery failed", zap.Error(err))
	} else if recovered > 0 {
		logger.Info("recovered stale inbox entries", zap.Int64("count", recovered))
	}

	// Topics
	admin, err := redpanda.NewAdmin(cfg.Kafka.Brokers, logger)
	if err != nil {
		logger.Fatal("failed to create admin client", zap.Error(err))
	}
	if err := admin.EnsureTopics(ctx); err != nil {
		logger.Fatal("failed to ensure topics", zap.Error(err))
	}
	admin.Close()

	// Producer for dead letters
	pcfg := redpanda.DefaultProducerConfig()
	pcfg.Brokers = cfg.Kafka.Brokers
	producer, err := redpanda.NewProducer(pcfg, logger)
	if err != nil {
		logger.Fatal("failed to create producer", zap.Error(err))
	}
	defer producer.Close()

	// Circuit breaker in front of the clinical endpoint
	breakers := circuitbreaker.NewManager(logger)
	upstream, err := breakers.GetOrCreate("clinical-endpoint",
		circuitbreaker.DefaultConfig("clinical-endpoint"))
	if err != nil {
		logger.Fatal("failed to create breaker", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	deliver := newDeliverer(httpClient, upstream, cfg.UpstreamURL, logger)

	// Worker pool for delivery fan-out
	workers, err := workerpool.New(workerpool.DefaultConfig(), func(ctx context.Context, task *workerpool.Task) *workerpool.Result {
		env := task.Payload.(*submitter.Envelope)

		_, err := inbox.Process(ctx, env.IdempotencyKey, "deliver-summary",
			mustMarshal(env), func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
				return deliver(ctx, env)
			})
		if err != nil {
			return &workerpool.Result{TaskID: task.ID, Success: false, Error: err, Data: env}
		}
		return &workerpool.Result{TaskID: task.ID, Success: true}
	}, logger)
	if err != nil {
		logger.Fatal("failed to create worker pool", zap.Error(err))
	}
	workers.Start()
	defer workers.Stop()

	// Exhausted deliveries land on the dead letter topic.
	go func() {
		for res := range workers.Results() {
			if res.Success {
				continue
			}
			env, ok := res.Data.(*submitter.Envelope)
			if !ok {
				continue
			}
			logger.Error("delivery exhausted retries",
				zap.String("case_id", env.CaseID),
				zap.Error(res.Error))
			dlCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := producer.ProduceMessage(dlCtx, redpanda.TopicDeadLetter, env.CaseID, mustMarshal(env)); err != nil {
				logger.Error("dead letter publish failed",
					zap.String("case_id", env.CaseID), zap.Error(err))
			} else {
				m.KafkaMessagesProduced.Inc()
			}
			cancel()
		}
	}()

	// Consumer
	ccfg := redpanda.DefaultConsumerConfig()
	ccfg.Brokers = cfg.Kafka.Brokers
	ccfg.GroupID = cfg.Kafka.ConsumerGroup
	ccfg.Topics = []string{redpanda.TopicSubmissions, redpanda.TopicEscalations}

	consumer, err := redpanda.NewConsumer(ccfg, func(ctx context.Context, msg *redpanda.ConsumedMessage) error {
		m.KafkaMessagesConsumed.Inc()

		var env submitter.Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil || env.Summary == nil {
			// Poison record; committing it is the only way forward.
			logger.Error("undecodable record",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			return nil
		}

		if msg.Topic == redpanda.TopicEscalations {
			// Escalations are advisory copies; delivery happens off the
			// submissions topic. Log for the on-call feed and move on.
			logger.Warn("urgent follow-up escalated",
				zap.String("case_id", env.CaseID),
				zap.String("form", env.Summary.Form),
				zap.String("primary_outcome", env.Summary.PrimaryOutcome))
			return nil
		}

		return workers.Submit(&workerpool.Task{
			ID:      env.CaseID,
			Payload: &env,
			Context: ctx,
		})
	}, logger)
	if err != nil {
		logger.Fatal("failed to create consumer", zap.Error(err))
	}

	consumer.Start()
	logger.Info("dispatch relay started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("group", ccfg.GroupID),
		zap.String("upstream", cfg.UpstreamURL))

	// Export breaker state for alerting
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			state := 0.0
			switch upstream.GetState() {
			case circuitbreaker.StateOpen:
				state = 1
			case circuitbreaker.StateHalfOpen:
				state = 2
			}
			m.CircuitBreakerState.WithLabelValues("clinical-endpoint").Set(state)
		}
	}()

	// Metrics and health listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			status := map[string]interface{}{
				"service":  "dispatch-relay",
				"pool_ok":  workers.IsHealthy(),
				"breakers": breakers.GetHealthStatus(),
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(status)
		})
		if err := http.ListenAndServe(cfg.Server.MetricsAddr, mux); err != nil {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down relay")
	if err := consumer.Stop(); err != nil {
		logger.Error("consumer stop error", zap.Error(err))
	}
	logger.Info("relay stopped")
}

// newDeliverer returns the breaker-wrapped upstream call.
func newDeliverer(client *http.Client, breaker *circuitbreaker.CircuitBreaker, url string, logger *zap.Logger) func(context.Context, *submitter.Envelope) (json.RawMessage, error) {
	return func(ctx context.Context, env *submitter.Envelope) (json.RawMessage, error) {
		_, err := breaker.Execute(ctx, func() (interface{}, error) {
			body, err := json.Marshal(env)
			if err != nil {
				return nil, fmt.Errorf("encode envelope: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("build request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Idempotency-Key", env.IdempotencyKey)
			if env.Summary.Urgent {
				req.Header.Set("X-Priority", "urgent")
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("deliver summary: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 300 {
				return nil, fmt.Errorf("upstream returned %d", resp.StatusCode)
			}
			return nil, nil
		})
		if err != nil {
			return nil, err
		}

		logger.Info("summary delivered",
			zap.String("case_id", env.CaseID),
			zap.Bool("urgent", env.Summary.Urgent))

		result, _ := json.Marshal(map[string]string{"case_id": env.CaseID, "status": "delivered"})
		return result, nil
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
