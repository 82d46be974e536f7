// Package capture implements the segmented one-time-passcode input engine: a
// fixed-length row of single-digit cells with focus transfer, paste
// distribution, and a single completion emission per completing mutation. The
// engine knows nothing about code validity; it only detects "all cells
// filled" and hands the concatenated string to its sink.
package capture

import (
	"strings"
)

// DefaultLength is the standard passcode length.
const DefaultLength = 4

// NoFocus marks an effect that leaves focus where it is.
const NoFocus = -1

// Effect describes what the host UI should do after a mutation: move focus
// and/or forward a completed code to the verification collaborator.
type Effect struct {
	// Focus is the cell index to focus next, or NoFocus.
	Focus int
	// Completed is true when this mutation filled the last empty cell (or
	// changed a digit while full).
	Completed bool
	// Code is the concatenated passcode, set only when Completed.
	Code string
}

// Sink receives the completed code. Wired to the verification collaborator.
type Sink func(code string)

// Engine holds the cell row for one entry attempt. Not safe for concurrent
// use; each session owns its own instance.
type Engine struct {
	cells []byte // '0'-'9', or 0 for empty
	sink  Sink
}

// New creates an engine with n cells. n <= 0 falls back to DefaultLength.
func New(n int, sink Sink) *Engine {
	if n <= 0 {
		n = DefaultLength
	}
	return &Engine{cells: make([]byte, n), sink: sink}
}

// Len returns the number of cells.
func (e *Engine) Len() int { return len(e.cells) }

// Cell returns the digit at index as a string, empty when unset.
func (e *Engine) Cell(index int) string {
	if index < 0 || index >= len(e.cells) || e.cells[index] == 0 {
		return ""
	}
	return string(e.cells[index])
}

// Code returns the concatenation of the filled cells.
func (e *Engine) Code() string {
	var b strings.Builder
	for _, c := range e.cells {
		if c != 0 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Filled reports whether every cell holds a digit.
func (e *Engine) Filled() bool {
	for _, c := range e.cells {
		if c == 0 {
			return false
		}
	}
	return true
}

// Reset clears all cells, e.g. after a failed verification.
func (e *Engine) Reset() {
	for i := range e.cells {
		e.cells[i] = 0
	}
}

// SetDigit stores the last character of raw at index. Non-numeric input is a
// no-op; a cell that already holds a digit is overwritten, not appended to.
// Focus advances to the next cell unless this is the last one.
func (e *Engine) SetDigit(index int, raw string) Effect {
	if index < 0 || index >= len(e.cells) {
		return Effect{Focus: NoFocus}
	}
	if raw == "" || !isDigits(raw) {
		return Effect{Focus: NoFocus}
	}

	digit := raw[len(raw)-1]
	changed := e.cells[index] != digit
	e.cells[index] = digit

	eff := Effect{Focus: NoFocus}
	if index < len(e.cells)-1 {
		eff.Focus = index + 1
	}
	e.finish(&eff, changed)
	return eff
}

// BackspaceAt handles backspace in an already-empty cell by moving focus one
// cell left. Deleting a digit from a non-empty cell is native text behavior
// owned by the host UI, so a non-empty cell yields no effect here.
func (e *Engine) BackspaceAt(index int) Effect {
	if index <= 0 || index >= len(e.cells) {
		return Effect{Focus: NoFocus}
	}
	if e.cells[index] != 0 {
		return Effect{Focus: NoFocus}
	}
	return Effect{Focus: index - 1}
}

// PasteAt distributes pasted text one character per cell starting at
// startIndex. The text is first truncated to the remaining capacity; if the
// truncated text contains any non-digit the paste is rejected outright.
// Focus lands on the last cell the paste filled.
func (e *Engine) PasteAt(startIndex int, text string) Effect {
	if startIndex < 0 || startIndex >= len(e.cells) || text == "" {
		return Effect{Focus: NoFocus}
	}

	if max := len(e.cells) - startIndex; len(text) > max {
		text = text[:max]
	}
	if !isDigits(text) {
		return Effect{Focus: NoFocus}
	}

	changed := false
	for i := 0; i < len(text); i++ {
		if e.cells[startIndex+i] != text[i] {
			changed = true
		}
		e.cells[startIndex+i] = text[i]
	}

	eff := Effect{Focus: startIndex + len(text) - 1}
	e.finish(&eff, changed)
	return eff
}

// finish emits the completion signal when a mutation that changed a cell
// leaves the row fully filled. Mutations that changed nothing never emit, so
// repeated no-op edits on a full row stay silent.
func (e *Engine) finish(eff *Effect, changed bool) {
	if !changed || !e.Filled() {
		return
	}
	eff.Completed = true
	eff.Code = e.Code()
	if e.sink != nil {
		e.sink(eff.Code)
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
