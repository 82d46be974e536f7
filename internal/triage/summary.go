package triage

import (
	"sort"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/interview"
)

// NoNotesMarker is recorded when the patient left the notes field empty, so
// the reviewing clinician can tell "nothing entered" from a dropped field.
const NoNotesMarker = "none provided"

// Entry is one humanized answer in the summary.
type Entry struct {
	QuestionID string `json:"question_id"`
	Prompt     string `json:"prompt"`
	Answer     string `json:"answer"`
	Notes      string `json:"notes,omitempty"`
}

// Summary is the doctor-readable payload handed to the submission
// collaborator. This record, not the raw response map, crosses the boundary.
type Summary struct {
	Form           string              `json:"form"`
	PrimaryOutcome string              `json:"primary_outcome"`
	Entries        []Entry             `json:"entries"`
	Notes          string              `json:"notes"`
	Urgent         bool                `json:"urgent"`
	Consent        bool                `json:"consent"`
	CatalogVersion string              `json:"catalog_version"`
	RuleVersion    string              `json:"rule_version"`
	Context        catalog.CaseContext `json:"context"`
}

// BuildSummary renders the final interview state. Entries follow catalog
// priority order; answered questions no longer applicable (orphaned by a late
// undo) are still included, and responses for ids missing from the catalog
// entirely are appended last with their raw codes echoed.
func BuildSummary(state *interview.State, rules RuleTable) *Summary {
	cat := state.Catalog
	s := &Summary{
		Form:           cat.Form,
		Notes:          state.AdditionalNotes,
		Urgent:         rules.IsUrgent(state.Responses),
		Consent:        state.Consent,
		CatalogVersion: cat.Version,
		RuleVersion:    rules.Version,
		Context:        state.Context,
	}
	if s.Notes == "" {
		s.Notes = NoNotesMarker
	}

	if outcome := state.Responses.Selected(catalog.QuestionTreatmentOutcome); len(outcome) > 0 {
		s.PrimaryOutcome = Humanize(cat, catalog.QuestionTreatmentOutcome, outcome[0])
	}

	covered := make(map[string]bool, len(state.Responses))
	for _, q := range cat.Questions {
		resp, ok := state.Responses[q.ID]
		if !ok || len(resp.Selected) == 0 {
			continue
		}
		covered[q.ID] = true
		s.Entries = append(s.Entries, Entry{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Answer:     HumanizeAll(cat, q.ID, resp.Selected),
			Notes:      resp.Notes,
		})
	}

	// Stale ids from an older catalog revision: echo raw codes, sorted for a
	// stable record.
	var stale []string
	for id, resp := range state.Responses {
		if !covered[id] && len(resp.Selected) > 0 {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	for _, id := range stale {
		resp := state.Responses[id]
		s.Entries = append(s.Entries, Entry{
			QuestionID: id,
			Prompt:     id,
			Answer:     HumanizeAll(cat, id, resp.Selected),
			Notes:      resp.Notes,
		})
	}

	return s
}
