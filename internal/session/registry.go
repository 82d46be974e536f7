// Package session tracks in-flight follow-up interviews. Sessions are
// in-memory only; an abandoned interview simply expires and nothing is
// persisted until the patient submits.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/capture"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/interview"
)

// ErrNotFound is returned when a session id is unknown or already expired.
var ErrNotFound = errors.New("session not found")

// Session is one patient's interview in progress. Callers must hold the
// session's lock while touching Capture or Interview.
type Session struct {
	mu sync.Mutex

	ID        string
	Form      string
	Capture   *capture.Engine
	Context   catalog.CaseContext
	Interview *interview.Controller
	Verified  bool
	Submitted bool
	CreatedAt time.Time
	LastSeen  time.Time
}

// Lock acquires the session lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Verify attaches the verified case and its interview. Called with the
// session lock held.
func (s *Session) Verify(cctx catalog.CaseContext, ctrl *interview.Controller) {
	s.Context = cctx
	s.Interview = ctrl
	s.Verified = true
}

// Config holds registry configuration
type Config struct {
	// TTL is how long an idle session survives
	TTL time.Duration
	// SweepInterval is how often expired sessions are collected
	SweepInterval time.Duration
	// CodeLength is the access code length for new sessions
	CodeLength int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		TTL:           30 * time.Minute,
		SweepInterval: time.Minute,
		CodeLength:    capture.DefaultLength,
	}
}

// Registry is a concurrency-safe in-memory session store with TTL expiry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	config   Config
	logger   *zap.Logger
	onExpire func(*Session)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates a registry. onExpire, when non-nil, is called for each
// session removed by the sweeper (abandonment metrics).
func NewRegistry(cfg Config, logger *zap.Logger, onExpire func(*Session)) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig().SweepInterval
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = capture.DefaultLength
	}

	return &Registry{
		sessions: make(map[string]*Session),
		config:   cfg,
		logger:   logger,
		onExpire: onExpire,
		done:     make(chan struct{}),
	}
}

// Create starts a new unverified session for a form. The capture engine is
// wired before the interview exists; verification bridges the two.
func (r *Registry) Create(form string) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.New().String(),
		Form:      form,
		Capture:   capture.New(r.config.CodeLength, nil),
		CreatedAt: now,
		LastSeen:  now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("form", form))

	return s
}

// Get returns a session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	s.Lock()
	s.LastSeen = time.Now()
	s.Unlock()

	return s, nil
}

// Remove deletes a session, normally after submission.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartSweeper launches the background expiry loop.
func (r *Registry) StartSweeper() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.config.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep()
			}
		}
	}()
}

// Stop stops the sweeper.
func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.config.TTL)

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		s.Lock()
		idle := s.LastSeen.Before(cutoff)
		s.Unlock()
		if idle {
			delete(r.sessions, id)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.logger.Info("session expired",
			zap.String("session_id", s.ID),
			zap.Bool("verified", s.Verified))
		if r.onExpire != nil {
			r.onExpire(s)
		}
	}
}
