package flow

import (
	"testing"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
)

type answers map[string][]string

func (a answers) Selected(questionID string) []string { return a[questionID] }

func ids(qs []catalog.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveEmptyResponses(t *testing.T) {
	cat := catalog.Standard()
	got := ids(Resolve(cat, answers{}, catalog.CaseContext{}))

	// Only the unconditional primary-outcome question applies before any
	// answer exists.
	want := []string{"treatmentOutcome"}
	if !equal(got, want) {
		t.Fatalf("resolve on empty responses = %v, want %v", got, want)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	cat := catalog.Standard()
	rs := answers{
		"treatmentOutcome": {"worse"},
		"worseningDetails": {"side_effects"},
	}
	cctx := catalog.CaseContext{Medicine: "amoxicillin"}

	first := ids(Resolve(cat, rs, cctx))
	second := ids(Resolve(cat, rs, cctx))
	if !equal(first, second) {
		t.Fatalf("two resolves with identical input differ: %v vs %v", first, second)
	}
}

func TestValueDependentBranch(t *testing.T) {
	cat := catalog.Standard()

	worse := ids(Resolve(cat, answers{"treatmentOutcome": {"worse"}}, catalog.CaseContext{}))
	if !contains(worse, "worseningDetails") {
		t.Errorf("worseningDetails should apply after outcome=worse, got %v", worse)
	}
	if contains(worse, "recoveryTime") {
		t.Errorf("recoveryTime should not apply after outcome=worse, got %v", worse)
	}

	recovered := ids(Resolve(cat, answers{"treatmentOutcome": {"fully_recovered"}}, catalog.CaseContext{}))
	if !contains(recovered, "recoveryTime") {
		t.Errorf("recoveryTime should apply after outcome=fully_recovered, got %v", recovered)
	}
	if contains(recovered, "worseningDetails") {
		t.Errorf("worseningDetails should not apply after outcome=fully_recovered, got %v", recovered)
	}
}

func TestConjunctiveConditions(t *testing.T) {
	cat := catalog.Standard()

	// anySideEffects requires both the outcome and the adherence answer to
	// be present at the same time.
	one := ids(Resolve(cat, answers{"treatmentOutcome": {"improving"}}, catalog.CaseContext{}))
	if contains(one, "anySideEffects") {
		t.Errorf("anySideEffects should not apply with only the outcome answered, got %v", one)
	}

	both := ids(Resolve(cat, answers{
		"treatmentOutcome": {"improving"},
		"medicationTaken":  {"completed"},
	}, catalog.CaseContext{}))
	if !contains(both, "anySideEffects") {
		t.Errorf("anySideEffects should apply once outcome and adherence are answered, got %v", both)
	}
}

func TestOrphanedResponsesIgnored(t *testing.T) {
	cat := catalog.Standard()

	// worseningDetails was answered while outcome=worse; the outcome has
	// since been re-answered. The orphaned key must not panic the resolver
	// or force its question back into the output.
	rs := answers{
		"treatmentOutcome": {"fully_recovered"},
		"worseningDetails": {"side_effects"},
	}
	got := ids(Resolve(cat, rs, catalog.CaseContext{}))
	if contains(got, "worseningDetails") {
		t.Errorf("inapplicable answered question leaked into resolution: %v", got)
	}
	if contains(got, "sideEffectDetails") {
		t.Errorf("branch behind an orphaned answer resolved: %v", got)
	}
}

func TestNextUnanswered(t *testing.T) {
	cat := catalog.Standard()
	rs := answers{"treatmentOutcome": {"worse"}}
	resolved := Resolve(cat, rs, catalog.CaseContext{})

	q, ok := NextUnanswered(resolved, func(id string) bool {
		_, answered := rs[id]
		return answered
	})
	if !ok {
		t.Fatal("expected a pending question")
	}
	if q.ID != "worseningDetails" {
		t.Errorf("pending question = %s, want worseningDetails", q.ID)
	}

	_, ok = NextUnanswered(resolved, func(string) bool { return true })
	if ok {
		t.Error("expected no pending question when every id has an entry")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
