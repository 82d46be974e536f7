// Package catalog defines the static question catalog consumed by the flow
// resolver: question records, answer options, and declarative applicability
// conditions. Catalogs are immutable once loaded; branching logic lives in the
// conditions, never in presentation code.
package catalog

import (
	"fmt"
)

// Kind is the answer cardinality of a question.
type Kind string

const (
	// KindSingle questions hold exactly one selected value.
	KindSingle Kind = "single"
	// KindMulti questions hold a set of selected values.
	KindMulti Kind = "multi"
)

// Form identifies which questionnaire a catalog describes.
const (
	FormStandard     = "standard"
	FormAdverseEvent = "adverse_event"
)

// QuestionTreatmentOutcome is the primary-outcome question present in every form.
const QuestionTreatmentOutcome = "treatmentOutcome"

// Option is one selectable answer for a question. Labels may carry a leading
// decorative glyph for display; the triage humanizer strips it.
type Option struct {
	Value   string `json:"value" yaml:"value"`
	Label   string `json:"label" yaml:"label"`
	Urgent  bool   `json:"urgent,omitempty" yaml:"urgent,omitempty"`
	Serious bool   `json:"serious,omitempty" yaml:"serious,omitempty"`
}

// Question is a single catalog entry. Conditions are ANDed; a question with no
// conditions is always applicable.
type Question struct {
	ID         string      `json:"id" yaml:"id"`
	Prompt     string      `json:"prompt" yaml:"prompt"`
	Subtext    string      `json:"subtext,omitempty" yaml:"subtext,omitempty"`
	Kind       Kind        `json:"kind" yaml:"kind"`
	Required   bool        `json:"required" yaml:"required"`
	Urgent     bool        `json:"urgent,omitempty" yaml:"urgent,omitempty"`
	Options    []Option    `json:"options" yaml:"options"`
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Option returns the option with the given value.
func (q *Question) Option(value string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// Catalog is an ordered, versioned set of questions. Slice order is the fixed
// priority order the resolver walks; it is part of the catalog contract.
type Catalog struct {
	Form      string     `json:"form" yaml:"form"`
	Version   string     `json:"version" yaml:"version"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Question returns the question with the given id.
func (c *Catalog) Question(id string) (*Question, bool) {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return &c.Questions[i], true
		}
	}
	return nil, false
}

// Validate checks structural invariants: unique question ids, unique option
// values per question, known condition ops, and resolvable condition references.
func (c *Catalog) Validate() error {
	if c.Form == "" {
		return fmt.Errorf("catalog form is required")
	}
	if c.Version == "" {
		return fmt.Errorf("catalog %s: version is required", c.Form)
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("catalog %s: no questions", c.Form)
	}

	ids := make(map[string]bool, len(c.Questions))
	for i := range c.Questions {
		q := &c.Questions[i]
		if q.ID == "" {
			return fmt.Errorf("catalog %s: question %d has no id", c.Form, i)
		}
		if ids[q.ID] {
			return fmt.Errorf("catalog %s: duplicate question id %q", c.Form, q.ID)
		}
		ids[q.ID] = true

		if q.Kind != KindSingle && q.Kind != KindMulti {
			return fmt.Errorf("question %s: unknown kind %q", q.ID, q.Kind)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("question %s: no options", q.ID)
		}

		values := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if o.Value == "" {
				return fmt.Errorf("question %s: option with empty value", q.ID)
			}
			if values[o.Value] {
				return fmt.Errorf("question %s: duplicate option value %q", q.ID, o.Value)
			}
			values[o.Value] = true
		}
	}

	// Condition references must point at questions declared earlier in the
	// priority order, so a snapshot walk can never depend on a later answer.
	seen := make(map[string]bool, len(c.Questions))
	for i := range c.Questions {
		q := &c.Questions[i]
		for _, cond := range q.Conditions {
			if err := cond.validate(); err != nil {
				return fmt.Errorf("question %s: %w", q.ID, err)
			}
			if cond.Question != "" && !seen[cond.Question] {
				if !ids[cond.Question] {
					return fmt.Errorf("question %s: condition references unknown question %q", q.ID, cond.Question)
				}
				return fmt.Errorf("question %s: condition references later question %q", q.ID, cond.Question)
			}
		}
		seen[q.ID] = true
	}

	return nil
}
