// Package handlers provides HTTP handlers for the follow-up API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/api/middleware"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/capture"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/collab/submitter"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/collab/verifier"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/interview"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/observability/metrics"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/session"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/triage"
)

// SessionHandler drives the interview lifecycle: code entry, questions,
// answers, undo, notes, consent, and submission.
type SessionHandler struct {
	registry  *session.Registry
	catalogs  catalog.Source
	verifier  *verifier.Verifier
	submitter *submitter.Submitter
	interview interview.Config
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewSessionHandler creates a handler.
func NewSessionHandler(
	registry *session.Registry,
	catalogs catalog.Source,
	v *verifier.Verifier,
	s *submitter.Submitter,
	cfg interview.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		registry:  registry,
		catalogs:  catalogs,
		verifier:  v,
		submitter: s,
		interview: cfg,
		metrics:   m,
		logger:    logger,
	}
}

// Routes returns the handler routes
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/{id}", h.Status)
	r.Post("/{id}/code/events", h.CodeEvent)
	r.Get("/{id}/question", h.Question)
	r.Post("/{id}/answers", h.Answer)
	r.Post("/{id}/undo", h.Undo)
	r.Put("/{id}/notes", h.Notes)
	r.Put("/{id}/consent", h.Consent)
	r.Get("/{id}/summary", h.Summary)
	r.Post("/{id}/submit", h.Submit)
	return r
}

// CreateRequest is the request body for starting a session
type CreateRequest struct {
	Form string `json:"form"`
}

// CreateResponse is the response for a new session
type CreateResponse struct {
	SessionID  string    `json:"session_id"`
	Form       string    `json:"form"`
	CodeLength int       `json:"code_length"`
	CreatedAt  time.Time `json:"created_at"`
}

// Create handles POST /sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("session-handler")
	ctx, span := tracer.Start(ctx, "create_session")
	defer span.End()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Form == "" {
		req.Form = catalog.FormStandard
	}

	// Verify the form has a catalog before opening a session for it.
	if _, err := h.catalogs.Load(ctx, req.Form); err != nil {
		h.jsonError(w, "unknown form: "+req.Form, http.StatusBadRequest)
		return
	}

	s := h.registry.Create(req.Form)
	span.SetAttributes(attribute.String("session_id", s.ID))

	h.metrics.InterviewsStarted.Inc()
	h.metrics.ActiveSessions.Set(float64(h.registry.Len()))

	h.logger.Info("session started",
		zap.String("session_id", s.ID),
		zap.String("form", req.Form),
		zap.String("request_id", middleware.GetRequestID(ctx)))

	h.writeJSON(w, http.StatusCreated, CreateResponse{
		SessionID:  s.ID,
		Form:       s.Form,
		CodeLength: s.Capture.Len(),
		CreatedAt:  s.CreatedAt,
	})
}

// Status handles GET /sessions/{id}
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.Lock()
	resp := map[string]interface{}{
		"session_id": s.ID,
		"form":       s.Form,
		"verified":   s.Verified,
		"submitted":  s.Submitted,
		"created_at": s.CreatedAt,
	}
	if s.Verified {
		resp["answered"] = s.Interview.AnsweredCount()
		resp["complete"] = s.Interview.IsComplete()
	}
	s.Unlock()

	h.writeJSON(w, http.StatusOK, resp)
}

// CodeEventRequest is one keystroke-level event on the code entry row
type CodeEventRequest struct {
	Type  string `json:"type"` // digit, backspace, paste
	Index int    `json:"index"`
	Value string `json:"value,omitempty"`
}

// CodeEventResponse reports the UI effect and, when the row completed, the
// verification outcome.
type CodeEventResponse struct {
	Focus        int    `json:"focus"`
	Completed    bool   `json:"completed"`
	Verified     bool   `json:"verified"`
	Verification string `json:"verification,omitempty"` // accepted, invalid, expired, rate_limited
}

// CodeEvent handles POST /sessions/{id}/code/events. Digit and paste events
// that complete the row trigger verification inline; a rejected code clears
// the row so the patient starts over.
func (h *SessionHandler) CodeEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req CodeEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.Lock()
	defer s.Unlock()

	if s.Verified {
		h.jsonError(w, "session already verified", http.StatusConflict)
		return
	}

	var eff capture.Effect
	switch req.Type {
	case "digit":
		eff = s.Capture.SetDigit(req.Index, req.Value)
	case "backspace":
		eff = s.Capture.BackspaceAt(req.Index)
	case "paste":
		eff = s.Capture.PasteAt(req.Index, req.Value)
	default:
		h.jsonError(w, "unknown event type: "+req.Type, http.StatusBadRequest)
		return
	}

	resp := CodeEventResponse{Focus: eff.Focus, Completed: eff.Completed}

	if eff.Completed {
		h.metrics.VerificationAttempts.Inc()
		result, err := h.verifier.Verify(ctx, s.ID, eff.Code)
		switch {
		case err == nil:
			cat, lerr := h.catalogs.Load(ctx, s.Form)
			if lerr != nil {
				h.logger.Error("catalog load after verification failed",
					zap.String("session_id", s.ID), zap.Error(lerr))
				h.jsonError(w, "catalog unavailable", http.StatusServiceUnavailable)
				return
			}
			cctx := catalog.CaseContext{
				PrescriptionID: result.PrescriptionID,
				PatientRef:     result.PatientRef,
				Medicine:       result.Medicine,
				Condition:      result.Condition,
				Form:           s.Form,
			}
			s.Verify(cctx, interview.New(cat, cctx, h.interview, h.logger))
			resp.Verified = true
			resp.Verification = "accepted"

		case errors.Is(err, verifier.ErrInvalidCode):
			h.metrics.VerificationFailures.Inc()
			s.Capture.Reset()
			resp.Verification = "invalid"
		case errors.Is(err, verifier.ErrExpired):
			h.metrics.VerificationFailures.Inc()
			s.Capture.Reset()
			resp.Verification = "expired"
		case errors.Is(err, verifier.ErrRateLimited):
			h.metrics.VerificationFailures.Inc()
			resp.Verification = "rate_limited"
		default:
			h.logger.Error("verification call failed",
				zap.String("session_id", s.ID), zap.Error(err))
			h.jsonError(w, "verification service unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// QuestionResponse carries the pending question and progress
type QuestionResponse struct {
	Done     bool              `json:"done"`
	Question *catalog.Question `json:"question,omitempty"`
	Answered int               `json:"answered"`
	Complete bool              `json:"complete"`
}

// Question handles GET /sessions/{id}/question
func (h *SessionHandler) Question(w http.ResponseWriter, r *http.Request) {
	s, ok := h.verifiedSession(w, r)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()

	resp := QuestionResponse{
		Answered: s.Interview.AnsweredCount(),
		Complete: s.Interview.IsComplete(),
	}
	if q, pending := s.Interview.CurrentQuestion(); pending {
		resp.Question = q
	} else {
		resp.Done = true
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// AnswerRequest records one selection event
type AnswerRequest struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
	Multi      bool   `json:"multi"`
}

// Answer handles POST /sessions/{id}/answers
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.verifiedSession(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.QuestionID == "" || req.Value == "" {
		h.jsonError(w, "question_id and value are required", http.StatusBadRequest)
		return
	}

	s.Lock()
	defer s.Unlock()

	if err := s.Interview.Answer(req.QuestionID, req.Value, req.Multi); err != nil {
		if errors.Is(err, interview.ErrOutOfSequence) {
			h.jsonError(w, "question is not answerable yet", http.StatusConflict)
			return
		}
		h.jsonError(w, "failed to record answer", http.StatusInternalServerError)
		return
	}

	h.metrics.AnswersRecorded.Inc()

	resp := QuestionResponse{
		Answered: s.Interview.AnsweredCount(),
		Complete: s.Interview.IsComplete(),
	}
	if q, pending := s.Interview.CurrentQuestion(); pending {
		resp.Question = q
	} else {
		resp.Done = true
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Undo handles POST /sessions/{id}/undo
func (h *SessionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.verifiedSession(w, r)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()

	undone, ok := s.Interview.UndoLast()
	if !ok {
		h.jsonError(w, "nothing to undo", http.StatusConflict)
		return
	}

	h.metrics.AnswersUndone.Inc()

	resp := map[string]interface{}{"undone": undone}
	if q, pending := s.Interview.CurrentQuestion(); pending {
		resp["question"] = q
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// NotesRequest attaches free text to a question or to the interview
type NotesRequest struct {
	QuestionID      string `json:"question_id,omitempty"`
	Notes           string `json:"notes"`
	AdditionalNotes bool   `json:"additional_notes,omitempty"`
}

// Notes handles PUT /sessions/{id}/notes
func (h *SessionHandler) Notes(w http.ResponseWriter, r *http.Request) {
	s, ok := h.verifiedSession(w, r)
	if !ok {
		return
	}

	var req NotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.Lock()
	defer s.Unlock()

	switch {
	case req.AdditionalNotes:
		s.Interview.SetAdditionalNotes(req.Notes)
	case req.QuestionID != "":
		s.Interview.SetNotes(req.QuestionID, req.Notes)
	default:
		h.jsonError(w, "question_id or additional_notes is required", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConsentRequest records the sharing consent checkbox
type ConsentRequest struct {
	Consent bool `json:"consent"`
}

// Consent handles PUT /sessions/{id}/consent
func (h *SessionHandler) Consent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.verifiedSession(w, r)
	if !ok {
		return
	}

	var req ConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.Lock()
	s.Interview.SetConsent(req.Consent)
	s.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /sessions/{id}/summary. A preview of what submission
// will send, with raw codes already humanized.
func (h *SessionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.verifiedSession(w, r)
	if !ok {
		return
	}

	s.Lock()
	state := s.Interview.State()
	s.Unlock()

	rules := triage.RulesFromCatalog(state.Catalog)
	h.writeJSON(w, http.StatusOK, triage.BuildSummary(state, rules))
}

// SubmitResponse acknowledges a delivered summary
type SubmitResponse struct {
	CaseID      string    `json:"case_id"`
	Urgent      bool      `json:"urgent"`
	Escalated   bool      `json:"escalated"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Submit handles POST /sessions/{id}/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("session-handler")
	ctx, span := tracer.Start(ctx, "submit_session")
	defer span.End()

	start := time.Now()

	s, ok := h.verifiedSession(w, r)
	if !ok {
		return
	}

	s.Lock()
	defer s.Unlock()

	if s.Submitted {
		h.jsonError(w, "session already submitted", http.StatusConflict)
		return
	}
	if !s.Interview.IsComplete() {
		h.jsonError(w, "interview is not complete", http.StatusConflict)
		return
	}

	state := s.Interview.State()
	rules := triage.RulesFromCatalog(state.Catalog)
	summary := triage.BuildSummary(state, rules)

	span.SetAttributes(
		attribute.String("session_id", s.ID),
		attribute.Bool("urgent", summary.Urgent),
	)

	ack, err := h.submitter.Submit(ctx, summary)
	if err != nil {
		if errors.Is(err, submitter.ErrConsentRequired) {
			h.jsonError(w, "consent is required before submission", http.StatusPreconditionFailed)
			return
		}
		h.metrics.SubmissionsFailed.Inc()
		h.logger.Error("submission failed",
			zap.String("session_id", s.ID), zap.Error(err))
		h.jsonError(w, "submission failed", http.StatusBadGateway)
		return
	}

	s.Submitted = true
	h.metrics.InterviewsCompleted.Inc()
	h.metrics.SubmissionsPublished.Inc()
	if summary.Urgent {
		h.metrics.UrgentFlagged.Inc()
	}
	h.metrics.SubmitDuration.Observe(time.Since(start).Seconds())

	h.logger.Info("interview submitted",
		zap.String("session_id", s.ID),
		zap.String("case_id", ack.CaseID),
		zap.Bool("urgent", summary.Urgent),
		zap.String("request_id", middleware.GetRequestID(ctx)))

	h.writeJSON(w, http.StatusAccepted, SubmitResponse{
		CaseID:      ack.CaseID,
		Urgent:      summary.Urgent,
		Escalated:   ack.Escalated,
		SubmittedAt: ack.SubmittedAt,
	})

	// The interview is done; drop the session rather than waiting for the
	// idle sweep.
	h.registry.Remove(s.ID)
	h.metrics.ActiveSessions.Set(float64(h.registry.Len()))
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, err := h.registry.Get(id)
	if err != nil {
		h.jsonError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) verifiedSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return nil, false
	}
	s.Lock()
	verified := s.Verified
	s.Unlock()
	if !verified {
		h.jsonError(w, "session not verified", http.StatusForbidden)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *SessionHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
