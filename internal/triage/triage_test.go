package triage

import (
	"testing"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/interview"
)

func TestAllergicReactionIsUrgent(t *testing.T) {
	rules := RulesFromCatalog(catalog.Standard())

	rs := interview.ResponseSet{
		"treatmentOutcome":  {Selected: []string{"worse"}},
		"worseningDetails":  {Selected: []string{"side_effects"}},
		"sideEffectDetails": {Selected: []string{"allergic"}},
	}
	if !rules.IsUrgent(rs) {
		t.Fatal("allergic reaction on a worsening case must flag urgent")
	}
}

func TestRecoveredPathNotUrgent(t *testing.T) {
	rules := RulesFromCatalog(catalog.Standard())

	rs := interview.ResponseSet{
		"treatmentOutcome": {Selected: []string{"fully_recovered"}},
		"recoveryTime":     {Selected: []string{"within_days"}},
		"medicationTaken":  {Selected: []string{"completed"}},
		"anySideEffects":   {Selected: []string{"none"}},
	}
	if rules.IsUrgent(rs) {
		t.Fatal("clean recovery must not flag urgent")
	}
}

func TestUrgencyIsQuestionSpecific(t *testing.T) {
	rules := RulesFromCatalog(catalog.Standard())

	// "worse" is an urgent value only under treatmentOutcome. The same code
	// appearing under another question must not trigger.
	rs := interview.ResponseSet{
		"recoveryTime": {Selected: []string{"worse"}},
	}
	if rules.IsUrgent(rs) {
		t.Fatal("urgent value under the wrong question triggered the rule")
	}
}

func TestSeriousValuesAlsoTrigger(t *testing.T) {
	rules := RulesFromCatalog(catalog.Standard())

	rs := interview.ResponseSet{
		"treatmentOutcome": {Selected: []string{"improving"}},
		"medicationTaken":  {Selected: []string{"completed"}},
		"anySideEffects":   {Selected: []string{"severe"}},
	}
	if !rules.IsUrgent(rs) {
		t.Fatal("serious-flagged option must flag urgent")
	}
}

func TestHumanizeStripsGlyph(t *testing.T) {
	cat := catalog.Standard()

	if got := Humanize(cat, "treatmentOutcome", "fully_recovered"); got != "Fully recovered" {
		t.Errorf("humanize(fully_recovered) = %q, want %q", got, "Fully recovered")
	}
	if got := Humanize(cat, "treatmentOutcome", "worse"); got != "Condition worsened" {
		t.Errorf("humanize(worse) = %q, want %q", got, "Condition worsened")
	}
	// Plain labels pass through untouched.
	if got := Humanize(cat, "recoveryTime", "within_days"); got != "Within a few days" {
		t.Errorf("humanize(within_days) = %q", got)
	}
}

func TestHumanizeLookupMissEchoesRaw(t *testing.T) {
	cat := catalog.Standard()

	if got := Humanize(cat, "treatmentOutcome", "retired_code"); got != "retired_code" {
		t.Errorf("unknown value = %q, want raw echo", got)
	}
	if got := Humanize(cat, "retiredQuestion", "anything"); got != "anything" {
		t.Errorf("unknown question = %q, want raw echo", got)
	}
}

func TestBuildSummary(t *testing.T) {
	cat := catalog.Standard()
	rules := RulesFromCatalog(cat)

	state := &interview.State{
		Catalog: cat,
		Context: catalog.CaseContext{PrescriptionID: "rx-7", Medicine: "amoxicillin", Form: catalog.FormStandard},
		Responses: interview.ResponseSet{
			"treatmentOutcome":  {Selected: []string{"worse"}},
			"worseningDetails":  {Selected: []string{"side_effects"}, Notes: "started on day three"},
			"sideEffectDetails": {Selected: []string{"allergic", "nausea"}},
		},
		Consent: true,
	}

	s := BuildSummary(state, rules)

	if s.PrimaryOutcome != "Condition worsened" {
		t.Errorf("primary outcome = %q", s.PrimaryOutcome)
	}
	if !s.Urgent {
		t.Error("summary should carry the urgency flag")
	}
	if s.Notes != NoNotesMarker {
		t.Errorf("empty notes = %q, want marker %q", s.Notes, NoNotesMarker)
	}
	if s.CatalogVersion != cat.Version || s.RuleVersion != rules.Version {
		t.Error("summary must record catalog and rule versions")
	}

	// Entries follow catalog priority order.
	wantOrder := []string{"treatmentOutcome", "worseningDetails", "sideEffectDetails"}
	if len(s.Entries) != len(wantOrder) {
		t.Fatalf("entries = %d, want %d", len(s.Entries), len(wantOrder))
	}
	for i, want := range wantOrder {
		if s.Entries[i].QuestionID != want {
			t.Errorf("entry %d = %s, want %s", i, s.Entries[i].QuestionID, want)
		}
	}

	if s.Entries[2].Answer != "Allergic reaction (rash, swelling, breathing), Nausea or stomach upset" {
		t.Errorf("multi answer rendering = %q", s.Entries[2].Answer)
	}
	if s.Entries[1].Notes != "started on day three" {
		t.Errorf("per-question note lost: %q", s.Entries[1].Notes)
	}
}

func TestBuildSummaryIncludesOrphansAndStaleIDs(t *testing.T) {
	cat := catalog.Standard()
	rules := RulesFromCatalog(cat)

	state := &interview.State{
		Catalog: cat,
		Responses: interview.ResponseSet{
			// Orphaned: inapplicable under fully_recovered but still stored.
			"treatmentOutcome": {Selected: []string{"fully_recovered"}},
			"worseningDetails": {Selected: []string{"no_effect"}},
			// From a retired catalog revision.
			"oldQuestion": {Selected: []string{"some_code"}},
		},
		AdditionalNotes: "patient called twice",
	}

	s := BuildSummary(state, rules)

	if s.Notes != "patient called twice" {
		t.Errorf("notes = %q", s.Notes)
	}

	got := map[string]string{}
	for _, e := range s.Entries {
		got[e.QuestionID] = e.Answer
	}
	if got["worseningDetails"] != "The medication had no effect" {
		t.Errorf("orphaned answer missing or wrong: %q", got["worseningDetails"])
	}
	if got["oldQuestion"] != "some_code" {
		t.Errorf("stale id should echo its raw code: %q", got["oldQuestion"])
	}
	// Stale ids land after catalog-ordered entries.
	if s.Entries[len(s.Entries)-1].QuestionID != "oldQuestion" {
		t.Errorf("stale id not appended last: %v", s.Entries)
	}
}
