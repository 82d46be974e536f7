package catalog

// Built-in catalog definitions. These are the in-process fallbacks; the
// catalog-service serves the same structures from Postgres so wording and
// branching can be revised without a deploy. Option values are stable codes
// stored in responses; only labels are display text.

// Standard returns the treatment follow-up catalog.
func Standard() *Catalog {
	return &Catalog{
		Form:    FormStandard,
		Version: "2026-07-01",
		Questions: []Question{
			{
				ID:       QuestionTreatmentOutcome,
				Prompt:   "How is your condition since starting the treatment?",
				Subtext:  "Compare with how you felt when the prescription was issued.",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "fully_recovered", Label: "✅ Fully recovered"},
					{Value: "improving", Label: "\U0001F642 Improving"},
					{Value: "no_change", Label: "\U0001F610 No change"},
					{Value: "worse", Label: "⚠️ Condition worsened", Urgent: true},
				},
			},
			{
				ID:       "recoveryTime",
				Prompt:   "How quickly did you recover?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "within_days", Label: "Within a few days"},
					{Value: "within_week", Label: "About a week"},
					{Value: "over_week", Label: "More than a week"},
				},
				Conditions: []Condition{
					{Op: OpSelected, Question: QuestionTreatmentOutcome, Values: []string{"fully_recovered"}},
				},
			},
			{
				ID:       "worseningDetails",
				Prompt:   "What do you think made it worse?",
				Kind:     KindSingle,
				Required: true,
				Urgent:   true,
				Options: []Option{
					{Value: "side_effects", Label: "Side effects of the medication"},
					{Value: "new_symptoms", Label: "New symptoms appeared", Serious: true},
					{Value: "no_effect", Label: "The medication had no effect"},
				},
				Conditions: []Condition{
					{Op: OpSelected, Question: QuestionTreatmentOutcome, Values: []string{"worse"}},
				},
			},
			{
				ID:       "sideEffectDetails",
				Prompt:   "Which side effects did you experience?",
				Subtext:  "Select all that apply.",
				Kind:     KindMulti,
				Required: true,
				Urgent:   true,
				Options: []Option{
					{Value: "allergic", Label: "\U0001F6A8 Allergic reaction (rash, swelling, breathing)", Urgent: true},
					{Value: "nausea", Label: "Nausea or stomach upset"},
					{Value: "dizziness", Label: "Dizziness or drowsiness"},
					{Value: "headache", Label: "Headache"},
					{Value: "other", Label: "Other"},
				},
				Conditions: []Condition{
					{Op: OpSelected, Question: "worseningDetails", Values: []string{"side_effects"}},
				},
			},
			{
				ID:       "medicationTaken",
				Prompt:   "How did you take the medication?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "completed", Label: "\U0001F48A Completed the full course"},
					{Value: "partial", Label: "Took most doses"},
					{Value: "stopped_side_effects", Label: "Stopped because of side effects"},
					{Value: "stopped_better", Label: "Stopped after feeling better"},
					{Value: "never_started", Label: "Never started it"},
				},
				Conditions: []Condition{
					{Op: OpAnswered, Question: QuestionTreatmentOutcome},
				},
			},
			{
				ID:       "anySideEffects",
				Prompt:   "Did you notice any side effects?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "none", Label: "No side effects"},
					{Value: "mild", Label: "Mild and manageable"},
					{Value: "severe", Label: "\U0001F6A8 Severe or disruptive", Serious: true},
				},
				// Asked only once both the outcome and adherence are on record.
				Conditions: []Condition{
					{Op: OpAnswered, Question: QuestionTreatmentOutcome},
					{Op: OpAnswered, Question: "medicationTaken"},
				},
			},
			{
				ID:       "medicalAttention",
				Prompt:   "Did you need medical attention for the side effects?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "yes_er", Label: "\U0001F691 Sought emergency care", Urgent: true},
					{Value: "yes_doctor", Label: "Consulted a doctor"},
					{Value: "no", Label: "No medical attention needed"},
				},
				Conditions: []Condition{
					{Op: OpSelected, Question: "anySideEffects", Values: []string{"severe"}},
				},
			},
		},
	}
}

// AdverseEvent returns the adverse-event report catalog. This is the built-in
// copy of the server-delivered variant used when the catalog-service is
// unreachable.
func AdverseEvent() *Catalog {
	return &Catalog{
		Form:    FormAdverseEvent,
		Version: "2026-07-01",
		Questions: []Question{
			{
				ID:       "reactionType",
				Prompt:   "What kind of reaction did you experience?",
				Subtext:  "Select all that apply.",
				Kind:     KindMulti,
				Required: true,
				Options: []Option{
					{Value: "rash", Label: "Skin rash or itching"},
					{Value: "swelling", Label: "\U0001F6A8 Swelling of face or throat", Urgent: true},
					{Value: "breathing", Label: "\U0001F6A8 Difficulty breathing", Urgent: true},
					{Value: "nausea", Label: "Nausea or vomiting"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				ID:       "reactionSeverity",
				Prompt:   "How severe was the reaction?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "mild", Label: "Mild"},
					{Value: "moderate", Label: "Moderate"},
					{Value: "severe", Label: "\U0001F6A8 Severe", Serious: true},
				},
				Conditions: []Condition{
					{Op: OpAnswered, Question: "reactionType"},
				},
			},
			{
				ID:       "reactionTiming",
				Prompt:   "When did the reaction start?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "first_dose", Label: "After the first dose"},
					{Value: "within_days", Label: "Within a few days"},
					{Value: "after_week", Label: "After a week or more"},
				},
				Conditions: []Condition{
					{Op: OpAnswered, Question: "reactionType"},
				},
			},
			{
				ID:       "actionTaken",
				Prompt:   "What did you do about the medication?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "stopped", Label: "Stopped taking it"},
					{Value: "reduced", Label: "Reduced the dose"},
					{Value: "continued", Label: "Continued as prescribed"},
				},
				Conditions: []Condition{
					{Op: OpAnswered, Question: "reactionType"},
					{Op: OpAnswered, Question: "reactionSeverity"},
				},
			},
			{
				ID:       "rechallenge",
				Prompt:   "Did you restart the medication afterwards?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "yes_recurred", Label: "Restarted and the reaction returned", Serious: true},
					{Value: "yes_ok", Label: "Restarted without a reaction"},
					{Value: "no", Label: "Did not restart"},
				},
				Conditions: []Condition{
					{Op: OpSelected, Question: "actionTaken", Values: []string{"stopped"}},
				},
			},
			{
				ID:       QuestionTreatmentOutcome,
				Prompt:   "How are you feeling now?",
				Kind:     KindSingle,
				Required: true,
				Options: []Option{
					{Value: "fully_recovered", Label: "✅ Fully recovered"},
					{Value: "recovering", Label: "Recovering"},
					{Value: "not_recovered", Label: "Not recovered yet"},
					{Value: "worse", Label: "⚠️ Getting worse", Urgent: true},
				},
				Conditions: []Condition{
					{Op: OpAnswered, Question: "reactionType"},
				},
			},
		},
	}
}
