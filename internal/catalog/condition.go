package catalog

import (
	"fmt"
	"strings"
)

// Op is a condition operator. The set is deliberately small and fully
// data-encoded so server-delivered catalogs carry the same branching power as
// the built-in ones.
type Op string

const (
	// OpAnswered holds when the referenced question has a non-empty answer.
	OpAnswered Op = "answered"
	// OpSelected holds when the referenced question's answer includes any of Values.
	OpSelected Op = "selected"
	// OpNotSelected holds when the referenced question's answer includes none of Values.
	OpNotSelected Op = "not_selected"
	// OpContext holds when the case context field named by Field equals Value.
	OpContext Op = "context"
)

// Condition is one applicability clause. All conditions on a question must
// hold for the question to apply; values within a condition are alternatives.
type Condition struct {
	Op       Op       `json:"op" yaml:"op"`
	Question string   `json:"question,omitempty" yaml:"question,omitempty"`
	Values   []string `json:"values,omitempty" yaml:"values,omitempty"`
	Field    string   `json:"field,omitempty" yaml:"field,omitempty"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
}

// AnswerView is the read-only view of collected answers a condition is
// evaluated against. Absent questions report a nil selection.
type AnswerView interface {
	Selected(questionID string) []string
}

// CaseContext is the read-only prescription/case metadata supplied by the
// surrounding system. It is validated before it reaches the engine.
type CaseContext struct {
	PrescriptionID string `json:"prescription_id"`
	PatientRef     string `json:"patient_ref"`
	Medicine       string `json:"medicine"`
	Condition      string `json:"condition"`
	Form           string `json:"form"`
}

// Field returns the named context field for OpContext evaluation.
func (c CaseContext) Field(name string) string {
	switch name {
	case "medicine":
		return c.Medicine
	case "condition":
		return c.Condition
	case "form":
		return c.Form
	default:
		return ""
	}
}

// Holds evaluates the condition against the current answer snapshot and case
// context.
func (c Condition) Holds(answers AnswerView, cctx CaseContext) bool {
	switch c.Op {
	case OpAnswered:
		return len(answers.Selected(c.Question)) > 0
	case OpSelected:
		selected := answers.Selected(c.Question)
		for _, want := range c.Values {
			for _, got := range selected {
				if got == want {
					return true
				}
			}
		}
		return false
	case OpNotSelected:
		selected := answers.Selected(c.Question)
		if len(selected) == 0 {
			// An unanswered question has selected nothing.
			return true
		}
		for _, want := range c.Values {
			for _, got := range selected {
				if got == want {
					return false
				}
			}
		}
		return true
	case OpContext:
		return strings.EqualFold(cctx.Field(c.Field), c.Value)
	default:
		return false
	}
}

func (c Condition) validate() error {
	switch c.Op {
	case OpAnswered:
		if c.Question == "" {
			return fmt.Errorf("%s condition requires a question reference", c.Op)
		}
	case OpSelected, OpNotSelected:
		if c.Question == "" {
			return fmt.Errorf("%s condition requires a question reference", c.Op)
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("%s condition requires at least one value", c.Op)
		}
	case OpContext:
		if c.Field == "" {
			return fmt.Errorf("context condition requires a field name")
		}
	default:
		return fmt.Errorf("unknown condition op %q", c.Op)
	}
	return nil
}
