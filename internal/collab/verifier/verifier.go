// Package verifier checks patient access codes against the verification
// service. The code itself is issued out of band (SMS or printed on the
// pharmacy leaflet); this client only confirms it.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/pkg/circuitbreaker"
)

// Sentinel errors map the verification service's rejection reasons. They are
// business outcomes, not transport failures, and must not trip the breaker.
var (
	ErrInvalidCode = errors.New("access code rejected")
	ErrExpired     = errors.New("access code expired")
	ErrRateLimited = errors.New("too many verification attempts")
)

// Config holds verifier client configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// DefaultConfig returns defaults for local development
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:9090",
		Timeout: 5 * time.Second,
	}
}

// Result is the verification outcome for an accepted code.
type Result struct {
	PrescriptionID string `json:"prescription_id"`
	PatientRef     string `json:"patient_ref"`
	Medicine       string `json:"medicine"`
	Condition      string `json:"condition"`
}

// Verifier calls the verification service through a circuit breaker.
type Verifier struct {
	config  Config
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// New creates a verifier client.
func New(cfg Config, logger *zap.Logger) (*Verifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	bcfg := circuitbreaker.DefaultConfig("verification-service")
	bcfg.IsSuccessful = func(err error) bool {
		if err == nil {
			return true
		}
		// Rejected, expired, and throttled codes mean the service answered.
		return errors.Is(err, ErrInvalidCode) ||
			errors.Is(err, ErrExpired) ||
			errors.Is(err, ErrRateLimited)
	}

	breaker, err := circuitbreaker.New(bcfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create breaker: %w", err)
	}

	return &Verifier{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Verify checks a complete access code for a session. On success it returns
// the case the code unlocks.
func (v *Verifier) Verify(ctx context.Context, sessionID, code string) (*Result, error) {
	result, err := v.breaker.Execute(ctx, func() (interface{}, error) {
		return v.verify(ctx, sessionID, code)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Result), nil
}

func (v *Verifier) verify(ctx context.Context, sessionID, code string) (*Result, error) {
	body, err := json.Marshal(map[string]string{
		"session_id": sessionID,
		"code":       code,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		v.config.BaseURL+"/api/v1/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.config.APIKey != "" {
		req.Header.Set("X-API-Key", v.config.APIKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verification request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrInvalidCode
	case http.StatusGone:
		return nil, ErrExpired
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("verification service returned %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	v.logger.Info("access code verified",
		zap.String("session_id", sessionID),
		zap.String("prescription_id", result.PrescriptionID))

	return &result, nil
}

// BreakerState exposes the breaker state for health reporting.
func (v *Verifier) BreakerState() circuitbreaker.State {
	return v.breaker.GetState()
}
