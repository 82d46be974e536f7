// Package submitter publishes completed follow-up summaries to the broker
// for the dispatch relay to deliver.
package submitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/infrastructure/redpanda"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/triage"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/pkg/idempotency"
)

// ErrConsentRequired is returned when a summary arrives without the
// patient's sharing consent.
var ErrConsentRequired = errors.New("consent required before submission")

// Acknowledgment is returned to the caller after a successful publish.
type Acknowledgment struct {
	CaseID      string    `json:"case_id"`
	Escalated   bool      `json:"escalated"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Envelope is the broker payload wrapping a summary.
type Envelope struct {
	CaseID         string          `json:"case_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	SubmittedAt    time.Time       `json:"submitted_at"`
	Summary        *triage.Summary `json:"summary"`
}

// Producer is the broker surface the submitter needs.
type Producer interface {
	ProduceMessage(ctx context.Context, topic, key string, value []byte) error
}

// Submitter publishes summaries. Urgent summaries are additionally published
// to the escalation topic so the clinical on-call feed sees them without
// waiting for relay delivery.
type Submitter struct {
	producer Producer
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a submitter.
func New(producer Producer, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit publishes a summary and returns the acknowledgment. The broker key
// is the idempotency key, so retried submits land in the same partition and
// the relay's inbox dedupes them.
func (s *Submitter) Submit(ctx context.Context, summary *triage.Summary) (*Acknowledgment, error) {
	if summary == nil {
		return nil, fmt.Errorf("nil summary")
	}
	if !summary.Consent {
		return nil, ErrConsentRequired
	}

	submittedAt := s.now()
	key := idempotency.GenerateKey(
		summary.Context.PrescriptionID,
		summary.Context.PatientRef,
		summary.Form,
		submittedAt,
	)

	envelope := Envelope{
		CaseID:         uuid.New().String(),
		IdempotencyKey: key,
		SubmittedAt:    submittedAt,
		Summary:        summary,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	if err := s.producer.ProduceMessage(ctx, redpanda.TopicSubmissions, key, payload); err != nil {
		return nil, fmt.Errorf("publish submission: %w", err)
	}

	escalated := false
	if summary.Urgent {
		if err := s.producer.ProduceMessage(ctx, redpanda.TopicEscalations, key, payload); err != nil {
			// The submission itself landed; escalation delivery falls back
			// to the relay reading the urgent flag off the summary.
			s.logger.Error("failed to publish escalation",
				zap.String("case_id", envelope.CaseID),
				zap.Error(err))
		} else {
			escalated = true
		}
	}

	s.logger.Info("summary submitted",
		zap.String("case_id", envelope.CaseID),
		zap.String("form", summary.Form),
		zap.Bool("urgent", summary.Urgent),
		zap.Bool("escalated", escalated))

	return &Acknowledgment{
		CaseID:      envelope.CaseID,
		Escalated:   escalated,
		SubmittedAt: submittedAt,
	}, nil
}
