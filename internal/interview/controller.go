// Package interview implements the interview controller: the single owner of
// the response map for one patient session. It derives the pending question
// from the flow resolver after every mutation and supports linear backtracking
// through the answers actually given.
package interview

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/flow"
)

// ErrOutOfSequence is returned when Answer is called for a question that is
// neither pending nor already answered. That is an integration bug in the
// caller, not a user-reachable state.
var ErrOutOfSequence = errors.New("answer out of sequence")

// Response holds what the patient entered for one question. Notes are
// independent of the selection.
type Response struct {
	Selected []string `json:"selected"`
	Notes    string   `json:"notes,omitempty"`
}

// ResponseSet is the response map keyed by question id. It satisfies
// catalog.AnswerView so conditions evaluate directly against it.
type ResponseSet map[string]Response

// Selected returns the selected values for a question, nil when unanswered.
func (rs ResponseSet) Selected(questionID string) []string {
	return rs[questionID].Selected
}

// Config holds controller tuning. MinAnswered is the product-tuned minimum
// number of non-empty answers before an interview counts as complete; some
// branches legitimately end after one question, which is not clinically
// sufficient on its own.
type Config struct {
	MinAnswered int
}

// DefaultConfig returns the product defaults.
func DefaultConfig() Config {
	return Config{MinAnswered: 3}
}

// State is the snapshot handed to the triage evaluator at submission time.
type State struct {
	Catalog         *catalog.Catalog
	Context         catalog.CaseContext
	Responses       ResponseSet
	AdditionalNotes string
	Consent         bool
}

// answerMap adapts the internal selection store to catalog.AnswerView.
type answerMap map[string][]string

func (m answerMap) Selected(questionID string) []string { return m[questionID] }

// Controller tracks one interview. It is not safe for concurrent use; each
// patient session owns exactly one instance.
type Controller struct {
	catalog *catalog.Catalog
	cctx    catalog.CaseContext
	config  Config

	// Selections and per-question notes are kept apart: a note on a not yet
	// answered question must not make it look answered to the resolver.
	answers answerMap
	notes   map[string]string
	order   []string // question ids in the order first answered

	additionalNotes string
	consent         bool
	logger          *zap.Logger
}

// New creates an empty controller for a verified session.
func New(cat *catalog.Catalog, cctx catalog.CaseContext, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinAnswered <= 0 {
		cfg.MinAnswered = DefaultConfig().MinAnswered
	}
	return &Controller{
		catalog: cat,
		cctx:    cctx,
		config:  cfg,
		answers: make(answerMap),
		notes:   make(map[string]string),
		logger:  logger,
	}
}

// Resolved returns the currently applicable questions in priority order.
func (c *Controller) Resolved() []catalog.Question {
	return flow.Resolve(c.catalog, c.answers, c.cctx)
}

// CurrentQuestion returns the first applicable question with no answer entry,
// or false when the path is exhausted.
func (c *Controller) CurrentQuestion() (*catalog.Question, bool) {
	return flow.NextUnanswered(c.Resolved(), func(id string) bool {
		_, ok := c.answers[id]
		return ok
	})
}

// Answer records a value for a question. Single-select overwrites; multi
// toggles the value in the set, even when the toggle empties it. The question
// must be the pending one or one already holding an entry.
func (c *Controller) Answer(questionID, value string, multi bool) error {
	_, answered := c.answers[questionID]
	if !answered {
		current, ok := c.CurrentQuestion()
		if !ok || current.ID != questionID {
			c.logger.Warn("out-of-sequence answer",
				zap.String("question", questionID),
				zap.String("value", value))
			return ErrOutOfSequence
		}
		c.order = append(c.order, questionID)
	}

	if multi {
		c.answers[questionID] = toggle(c.answers[questionID], value)
	} else {
		c.answers[questionID] = []string{value}
	}
	return nil
}

// toggle inserts value if absent, removes it if present.
func toggle(selected []string, value string) []string {
	for i, v := range selected {
		if v == value {
			return append(selected[:i:i], selected[i+1:]...)
		}
	}
	return append(selected, value)
}

// SetNotes stores free text for a question without touching its selection and
// without affecting flow resolution.
func (c *Controller) SetNotes(questionID, text string) {
	if text == "" {
		delete(c.notes, questionID)
		return
	}
	c.notes[questionID] = text
}

// UndoLast removes the most recently answered question's response (selection
// and note), walking one step back through the path actually taken. Returns
// the undone id.
func (c *Controller) UndoLast() (string, bool) {
	if len(c.order) == 0 {
		return "", false
	}
	last := c.order[len(c.order)-1]
	c.order = c.order[:len(c.order)-1]
	delete(c.answers, last)
	delete(c.notes, last)
	return last, true
}

// AnsweredCount returns the number of questions with a non-empty selection.
// A multi set toggled back to empty does not count.
func (c *Controller) AnsweredCount() int {
	n := 0
	for _, selected := range c.answers {
		if len(selected) > 0 {
			n++
		}
	}
	return n
}

// IsComplete reports whether the interview can be submitted: no pending
// question remains and enough questions carry non-empty answers.
func (c *Controller) IsComplete() bool {
	if _, pending := c.CurrentQuestion(); pending {
		return false
	}
	return c.AnsweredCount() >= c.config.MinAnswered
}

// Responses builds the combined response map: selections plus per-question
// notes. Orphaned entries (answered, later made inapplicable by an undo on an
// earlier branch) are included as stored.
func (c *Controller) Responses() ResponseSet {
	rs := make(ResponseSet, len(c.answers))
	for id, selected := range c.answers {
		cp := make([]string, len(selected))
		copy(cp, selected)
		rs[id] = Response{Selected: cp, Notes: c.notes[id]}
	}
	for id, note := range c.notes {
		if _, ok := rs[id]; !ok {
			rs[id] = Response{Notes: note}
		}
	}
	return rs
}

// SetAdditionalNotes stores interview-level free text.
func (c *Controller) SetAdditionalNotes(text string) { c.additionalNotes = text }

// AdditionalNotes returns interview-level free text.
func (c *Controller) AdditionalNotes() string { return c.additionalNotes }

// SetConsent records the patient's consent flag.
func (c *Controller) SetConsent(v bool) { c.consent = v }

// Consent reports whether the patient consented to submission.
func (c *Controller) Consent() bool { return c.consent }

// Catalog returns the catalog this interview runs against.
func (c *Controller) Catalog() *catalog.Catalog { return c.catalog }

// Context returns the prescription/case context.
func (c *Controller) Context() catalog.CaseContext { return c.cctx }

// State snapshots the interview for summary building.
func (c *Controller) State() *State {
	return &State{
		Catalog:         c.catalog,
		Context:         c.cctx,
		Responses:       c.Responses(),
		AdditionalNotes: c.additionalNotes,
		Consent:         c.consent,
	}
}
