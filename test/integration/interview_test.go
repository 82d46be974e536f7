// Package integration provides end-to-end tests for the interview engine:
// code entry through submission, without any network dependencies.
package integration

import (
	"testing"
	"time"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/capture"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/interview"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/triage"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/pkg/idempotency"
)

func testContext() catalog.CaseContext {
	return catalog.CaseContext{
		PrescriptionID: "rx-1001",
		PatientRef:     "pt-42",
		Medicine:       "Amoxicillin 500mg",
		Condition:      "sinus infection",
		Form:           catalog.FormStandard,
	}
}

// TestWorseningInterviewEndToEnd walks the full urgent path: access code
// capture, the worsening branch, notes, consent, and the summary that would
// cross the submission boundary.
func TestWorseningInterviewEndToEnd(t *testing.T) {
	// Code entry completes exactly once.
	var codes []string
	eng := capture.New(4, func(code string) { codes = append(codes, code) })

	eng.SetDigit(0, "7")
	eng.SetDigit(1, "3")
	eng.SetDigit(2, "0")
	eff := eng.SetDigit(3, "9")
	if !eff.Completed || eff.Code != "7309" {
		t.Fatalf("expected completion with code 7309, got %+v", eff)
	}
	if len(codes) != 1 || codes[0] != "7309" {
		t.Fatalf("sink calls = %v, want one call with 7309", codes)
	}

	// Verified: the interview starts.
	cat := catalog.Standard()
	ctrl := interview.New(cat, testContext(), interview.DefaultConfig(), nil)

	steps := []struct {
		question string
		value    string
		multi    bool
	}{
		{"treatmentOutcome", "worse", false},
		{"worseningDetails", "side_effects", false},
		{"sideEffectDetails", "allergic", true},
		{"sideEffectDetails", "nausea", true},
		{"medicationTaken", "completed", false},
		{"anySideEffects", "severe", false},
		{"medicalAttention", "yes_er", false},
	}
	for _, step := range steps {
		q, ok := ctrl.CurrentQuestion()
		if !ok {
			t.Fatalf("no pending question before answering %s", step.question)
		}
		if q.ID != step.question && step.question != "sideEffectDetails" {
			t.Fatalf("pending question = %s, want %s", q.ID, step.question)
		}
		if err := ctrl.Answer(step.question, step.value, step.multi); err != nil {
			t.Fatalf("answer %s=%s: %v", step.question, step.value, err)
		}
	}

	ctrl.SetNotes("sideEffectDetails", "rash on both arms")
	ctrl.SetAdditionalNotes("started after the second dose")
	ctrl.SetConsent(true)

	if !ctrl.IsComplete() {
		t.Fatal("interview should be complete")
	}

	state := ctrl.State()
	rules := triage.RulesFromCatalog(cat)
	summary := triage.BuildSummary(state, rules)

	if !summary.Urgent {
		t.Error("allergic reaction path must flag urgent")
	}
	if summary.PrimaryOutcome != "Condition worsened" {
		t.Errorf("primary outcome = %q, want humanized worsened label", summary.PrimaryOutcome)
	}
	if summary.Notes != "started after the second dose" {
		t.Errorf("notes = %q", summary.Notes)
	}
	if summary.Context.PrescriptionID != "rx-1001" {
		t.Errorf("context lost: %+v", summary.Context)
	}

	// The side effect entry carries both values humanized and its note.
	var found bool
	for _, e := range summary.Entries {
		if e.QuestionID == "sideEffectDetails" {
			found = true
			if e.Notes != "rash on both arms" {
				t.Errorf("side effect notes = %q", e.Notes)
			}
			if e.Answer == "" || e.Answer == "allergic, nausea" {
				t.Errorf("answer not humanized: %q", e.Answer)
			}
		}
	}
	if !found {
		t.Error("summary missing sideEffectDetails entry")
	}
}

// TestRecoveredInterviewNotUrgent walks the short happy path and checks the
// minimum-answer threshold.
func TestRecoveredInterviewNotUrgent(t *testing.T) {
	cat := catalog.Standard()
	ctrl := interview.New(cat, testContext(), interview.DefaultConfig(), nil)

	answers := [][2]string{
		{"treatmentOutcome", "fully_recovered"},
		{"recoveryTime", "within_week"},
	}
	for _, a := range answers {
		if err := ctrl.Answer(a[0], a[1], false); err != nil {
			t.Fatalf("answer %s: %v", a[0], err)
		}
	}

	// Two answers is below the completion threshold even though more
	// questions remain anyway.
	if ctrl.IsComplete() {
		t.Fatal("interview complete too early")
	}

	if err := ctrl.Answer("medicationTaken", "completed", false); err != nil {
		t.Fatalf("answer medicationTaken: %v", err)
	}
	if err := ctrl.Answer("anySideEffects", "none", false); err != nil {
		t.Fatalf("answer anySideEffects: %v", err)
	}

	if !ctrl.IsComplete() {
		q, _ := ctrl.CurrentQuestion()
		t.Fatalf("interview should be complete, pending %v", q)
	}

	ctrl.SetConsent(true)
	summary := triage.BuildSummary(ctrl.State(), triage.RulesFromCatalog(cat))

	if summary.Urgent {
		t.Error("recovered path must not flag urgent")
	}
	if summary.PrimaryOutcome != "Fully recovered" {
		t.Errorf("primary outcome = %q", summary.PrimaryOutcome)
	}
	if summary.Notes != triage.NoNotesMarker {
		t.Errorf("empty notes should render marker, got %q", summary.Notes)
	}
}

// TestUndoAcrossBranchSwitch rewinds from the worsening branch onto the
// recovery branch and checks the resolver leaves no stale pending question.
func TestUndoAcrossBranchSwitch(t *testing.T) {
	cat := catalog.Standard()
	ctrl := interview.New(cat, testContext(), interview.DefaultConfig(), nil)

	must := func(id, v string) {
		t.Helper()
		if err := ctrl.Answer(id, v, false); err != nil {
			t.Fatalf("answer %s: %v", id, err)
		}
	}

	must("treatmentOutcome", "worse")
	must("worseningDetails", "no_effect")

	// Two undos rewind to a blank interview.
	for i := 0; i < 2; i++ {
		if _, ok := ctrl.UndoLast(); !ok {
			t.Fatalf("undo %d failed", i)
		}
	}
	if _, ok := ctrl.UndoLast(); ok {
		t.Fatal("undo on empty history should report nothing to undo")
	}

	q, ok := ctrl.CurrentQuestion()
	if !ok || q.ID != "treatmentOutcome" {
		t.Fatalf("after full rewind pending = %v", q)
	}

	// The recovery branch is now reachable.
	must("treatmentOutcome", "fully_recovered")
	q, ok = ctrl.CurrentQuestion()
	if !ok || q.ID != "recoveryTime" {
		t.Fatalf("pending after recovered = %v, want recoveryTime", q)
	}
}

// TestSubmissionKeyStability pins the dedupe property the relay depends on:
// same case, same minute, same key.
func TestSubmissionKeyStability(t *testing.T) {
	at := time.Date(2026, 8, 30, 10, 15, 20, 0, time.UTC)

	a := idempotency.GenerateKey("rx-1001", "pt-42", catalog.FormStandard, at)
	b := idempotency.GenerateKey("rx-1001", "pt-42", catalog.FormStandard, at.Add(30*time.Second))
	if a != b {
		t.Error("keys within the same minute must match")
	}

	c := idempotency.GenerateKey("rx-1001", "pt-42", catalog.FormStandard, at.Add(2*time.Minute))
	if a == c {
		t.Error("keys across minutes must differ")
	}

	d := idempotency.GenerateKey("rx-1001", "pt-42", catalog.FormAdverseEvent, at)
	if a == d {
		t.Error("keys across forms must differ")
	}
}
