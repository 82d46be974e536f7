package triage

import (
	"strings"
	"unicode"

	"github.com/Jay121305/Medical-Follow-Up-System-sub000/internal/catalog"
)

// Humanize maps a stored answer code to its clinician-readable label with any
// leading decorative glyph stripped. The question is re-resolved from the
// catalog each call so stale question instances cannot leak in. On a lookup
// miss the raw value is echoed back; Humanize never fails.
func Humanize(c *catalog.Catalog, questionID, rawValue string) string {
	q, ok := c.Question(questionID)
	if !ok {
		return rawValue
	}
	opt, ok := q.Option(rawValue)
	if !ok {
		return rawValue
	}
	return StripGlyph(opt.Label)
}

// HumanizeAll renders a multi-select answer as a comma-joined list.
func HumanizeAll(c *catalog.Catalog, questionID string, rawValues []string) string {
	parts := make([]string, 0, len(rawValues))
	for _, v := range rawValues {
		parts = append(parts, Humanize(c, questionID, v))
	}
	return strings.Join(parts, ", ")
}

// StripGlyph removes a leading run of decorative characters (emoji,
// variation selectors, symbols) plus the following whitespace from a label.
// Labels that start with a letter or digit pass through unchanged.
func StripGlyph(label string) string {
	trimmed := strings.TrimLeftFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.TrimSpace(trimmed)
}
