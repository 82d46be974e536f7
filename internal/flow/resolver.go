// Package flow implements the questionnaire flow resolver: a pure function
// from the current answer snapshot to the ordered list of applicable
// questions. All branching lives here; callers recompute after every answer
// or undo instead of tracking a cursor.
package flow

import (
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
)

// Resolve evaluates every catalog question's conditions against the current
// answer snapshot and case context, returning the applicable questions in
// catalog priority order.
//
// Resolve is pure and idempotent: identical inputs yield identical output.
// Conditions only see answers of questions already resolved applicable
// earlier in the walk. An answer orphaned by a branch switch is therefore
// invisible here and cannot keep its downstream branch alive; the stored
// answer itself is retained by the caller. Catalog validation rejects
// forward condition references, so the single ordered pass is sound.
func Resolve(cat *catalog.Catalog, answers catalog.AnswerView, cctx catalog.CaseContext) []catalog.Question {
	view := gatedView{answers: answers, visible: make(map[string]bool, len(cat.Questions))}
	applicable := make([]catalog.Question, 0, len(cat.Questions))
	for _, q := range cat.Questions {
		if Applicable(&q, view, cctx) {
			applicable = append(applicable, q)
			view.visible[q.ID] = true
		}
	}
	return applicable
}

// gatedView exposes only the answers of questions already found applicable.
// Everything else reads as unanswered, so not_selected conditions treat
// orphaned answers the same as missing ones.
type gatedView struct {
	answers catalog.AnswerView
	visible map[string]bool
}

func (v gatedView) Selected(questionID string) []string {
	if !v.visible[questionID] {
		return nil
	}
	return v.answers.Selected(questionID)
}

// Applicable reports whether a single question applies under the current
// snapshot. Conditions are conjunctive: all must hold.
func Applicable(q *catalog.Question, answers catalog.AnswerView, cctx catalog.CaseContext) bool {
	for _, cond := range q.Conditions {
		if !cond.Holds(answers, cctx) {
			return false
		}
	}
	return true
}

// NextUnanswered returns the first resolved question with no response entry.
// Keyed presence counts as answered here; completion accounting treats empty
// multi sets separately.
func NextUnanswered(resolved []catalog.Question, hasEntry func(id string) bool) (*catalog.Question, bool) {
	for i := range resolved {
		if !hasEntry(resolved[i].ID) {
			return &resolved[i], true
		}
	}
	return nil, false
}
