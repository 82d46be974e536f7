// Package triage evaluates a completed interview for clinical urgency and
// renders stored answer codes as clinician-readable text. The urgency rules
// are a static table versioned alongside the catalog; nothing here is
// inferred from free text.
package triage

import (
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/interview"
)

// Rule flags a case when any of Values is selected for QuestionID. Rules are
// question-specific: an urgent option value only triggers under the question
// it was declared on.
type Rule struct {
	QuestionID string   `json:"question_id"`
	Values     []string `json:"values"`
}

// RuleTable is the versioned urgency rule set for one catalog.
type RuleTable struct {
	Version string `json:"version"`
	Rules   []Rule `json:"rules"`
}

// RulesFromCatalog derives the rule table from the option entries flagged
// urgent or serious. The table inherits the catalog version so a summary
// records exactly which rule set flagged it.
func RulesFromCatalog(c *catalog.Catalog) RuleTable {
	t := RuleTable{Version: c.Version}
	for _, q := range c.Questions {
		var values []string
		for _, o := range q.Options {
			if o.Urgent || o.Serious {
				values = append(values, o.Value)
			}
		}
		if len(values) > 0 {
			t.Rules = append(t.Rules, Rule{QuestionID: q.ID, Values: values})
		}
	}
	return t
}

// IsUrgent reports whether any rule matches the response set. Orphaned
// responses count: a patient-reported allergic reaction stays urgent even if
// a later undo made its question inapplicable.
func (t RuleTable) IsUrgent(responses interview.ResponseSet) bool {
	for _, rule := range t.Rules {
		selected := responses.Selected(rule.QuestionID)
		for _, want := range rule.Values {
			for _, got := range selected {
				if got == want {
					return true
				}
			}
		}
	}
	return false
}
