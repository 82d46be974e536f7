package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalogsValidate(t *testing.T) {
	require.NoError(t, Standard().Validate())
	require.NoError(t, AdverseEvent().Validate())
}

func TestValidateRejectsDuplicateQuestionID(t *testing.T) {
	c := &Catalog{
		Form:    FormStandard,
		Version: "test",
		Questions: []Question{
			{ID: "q1", Kind: KindSingle, Options: []Option{{Value: "a", Label: "A"}}},
			{ID: "q1", Kind: KindSingle, Options: []Option{{Value: "a", Label: "A"}}},
		},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate question id")
}

func TestValidateRejectsDuplicateOptionValue(t *testing.T) {
	c := &Catalog{
		Form:    FormStandard,
		Version: "test",
		Questions: []Question{
			{ID: "q1", Kind: KindSingle, Options: []Option{
				{Value: "a", Label: "A"},
				{Value: "a", Label: "Also A"},
			}},
		},
	}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsForwardReference(t *testing.T) {
	c := &Catalog{
		Form:    FormStandard,
		Version: "test",
		Questions: []Question{
			{ID: "q1", Kind: KindSingle, Options: []Option{{Value: "a", Label: "A"}},
				Conditions: []Condition{{Op: OpAnswered, Question: "q2"}}},
			{ID: "q2", Kind: KindSingle, Options: []Option{{Value: "a", Label: "A"}}},
		},
	}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "later question")
}

func TestValidateRejectsUnknownOp(t *testing.T) {
	c := &Catalog{
		Form:    FormStandard,
		Version: "test",
		Questions: []Question{
			{ID: "q1", Kind: KindSingle, Options: []Option{{Value: "a", Label: "A"}},
				Conditions: []Condition{{Op: "regex_match", Question: "q1"}}},
		},
	}
	assert.Error(t, c.Validate())
}

type staticAnswers map[string][]string

func (a staticAnswers) Selected(id string) []string { return a[id] }

func TestConditionOps(t *testing.T) {
	answers := staticAnswers{
		"outcome": {"worse"},
		"effects": {"nausea", "headache"},
	}
	cctx := CaseContext{Medicine: "Amoxicillin"}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"answered holds", Condition{Op: OpAnswered, Question: "outcome"}, true},
		{"answered misses", Condition{Op: OpAnswered, Question: "missing"}, false},
		{"selected holds", Condition{Op: OpSelected, Question: "outcome", Values: []string{"worse"}}, true},
		{"selected alternative holds", Condition{Op: OpSelected, Question: "effects", Values: []string{"dizzy", "headache"}}, true},
		{"selected misses", Condition{Op: OpSelected, Question: "outcome", Values: []string{"improving"}}, false},
		{"not_selected holds", Condition{Op: OpNotSelected, Question: "effects", Values: []string{"allergic"}}, true},
		{"not_selected misses", Condition{Op: OpNotSelected, Question: "effects", Values: []string{"nausea"}}, false},
		{"not_selected on unanswered holds", Condition{Op: OpNotSelected, Question: "missing", Values: []string{"x"}}, true},
		{"context case-insensitive", Condition{Op: OpContext, Field: "medicine", Value: "amoxicillin"}, true},
		{"context misses", Condition{Op: OpContext, Field: "medicine", Value: "ibuprofen"}, false},
		{"unknown field", Condition{Op: OpContext, Field: "dosage", Value: ""}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Holds(answers, cctx))
		})
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
form: standard
version: "2026-08-01"
questions:
  - id: treatmentOutcome
    prompt: How is your condition?
    kind: single
    required: true
    options:
      - value: better
        label: Better
      - value: worse
        label: Worse
        urgent: true
  - id: worseningDetails
    prompt: What made it worse?
    kind: single
    required: true
    options:
      - value: side_effects
        label: Side effects
    conditions:
      - op: selected
        question: treatmentOutcome
        values: [worse]
`)

	c, err := ParseYAML(data)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", c.Version)
	require.Len(t, c.Questions, 2)

	q, ok := c.Question("worseningDetails")
	require.True(t, ok)
	require.Len(t, q.Conditions, 1)
	assert.Equal(t, OpSelected, q.Conditions[0].Op)

	opt, ok := c.Questions[0].Option("worse")
	require.True(t, ok)
	assert.True(t, opt.Urgent)
}

func TestParseYAMLRejectsInvalidCatalog(t *testing.T) {
	_, err := ParseYAML([]byte("form: standard\nversion: v1\nquestions: []\n"))
	assert.Error(t, err)
}
