package capture

import (
	"testing"
)

func TestSetDigitAdvancesFocus(t *testing.T) {
	e := New(4, nil)

	eff := e.SetDigit(0, "7")
	if eff.Focus != 1 {
		t.Errorf("focus after first digit = %d, want 1", eff.Focus)
	}
	if eff.Completed {
		t.Error("single digit must not complete")
	}

	eff = e.SetDigit(3, "9")
	if eff.Focus != NoFocus {
		t.Errorf("last cell should not advance focus, got %d", eff.Focus)
	}
}

func TestSetDigitKeepsLastCharacter(t *testing.T) {
	e := New(4, nil)

	// A cell that already holds a digit and receives another keystroke ends
	// up with the new digit, not a concatenation.
	e.SetDigit(0, "1")
	e.SetDigit(0, "12")
	if got := e.Cell(0); got != "2" {
		t.Errorf("cell 0 = %q, want 2", got)
	}
}

func TestSetDigitRejectsNonNumeric(t *testing.T) {
	e := New(4, nil)
	e.SetDigit(0, "5")

	eff := e.SetDigit(0, "a")
	if eff.Focus != NoFocus || eff.Completed {
		t.Errorf("non-numeric input had an effect: %+v", eff)
	}
	if got := e.Cell(0); got != "5" {
		t.Errorf("cell mutated by rejected input: %q", got)
	}
}

func TestBackspaceOnEmptyCellMovesFocusLeft(t *testing.T) {
	e := New(4, nil)
	e.SetDigit(0, "9")
	e.SetDigit(1, "9")

	// Cell 2 is empty; backspace retreats without deleting anything.
	eff := e.BackspaceAt(2)
	if eff.Focus != 1 {
		t.Errorf("focus = %d, want 1", eff.Focus)
	}
	if got := e.Cell(1); got != "9" {
		t.Errorf("backspace on empty cell touched cell 1: %q", got)
	}

	// Non-empty cell: deletion is native behavior, no engine effect.
	eff = e.BackspaceAt(1)
	if eff.Focus != NoFocus {
		t.Errorf("backspace on non-empty cell moved focus: %d", eff.Focus)
	}

	eff = e.BackspaceAt(0)
	if eff.Focus != NoFocus {
		t.Errorf("backspace on first cell moved focus: %d", eff.Focus)
	}
}

func TestPasteRejectsNonDigits(t *testing.T) {
	e := New(4, nil)

	eff := e.PasteAt(0, "12ab")
	if eff.Focus != NoFocus || eff.Completed {
		t.Errorf("malformed paste had an effect: %+v", eff)
	}
	if e.Code() != "" {
		t.Errorf("malformed paste mutated cells: %q", e.Code())
	}
}

func TestPasteFillsAndCompletesOnce(t *testing.T) {
	var emitted []string
	e := New(4, func(code string) { emitted = append(emitted, code) })

	eff := e.PasteAt(0, "1234")
	if !eff.Completed || eff.Code != "1234" {
		t.Fatalf("full paste should complete with the code, got %+v", eff)
	}
	if eff.Focus != 3 {
		t.Errorf("focus = %d, want final cell 3", eff.Focus)
	}
	if len(emitted) != 1 || emitted[0] != "1234" {
		t.Fatalf("sink emissions = %v, want exactly one", emitted)
	}

	// Re-pasting the identical digits changes nothing and must stay silent.
	eff = e.PasteAt(0, "1234")
	if eff.Completed || len(emitted) != 1 {
		t.Errorf("no-op paste re-emitted: %+v, emissions %v", eff, emitted)
	}
}

func TestPasteTruncatesToRemainingCapacity(t *testing.T) {
	e := New(4, nil)

	// Paste starting mid-row only has two cells of capacity; the overflow is
	// cut before validation, so trailing garbage is irrelevant.
	eff := e.PasteAt(2, "78xy")
	if eff.Focus != 3 {
		t.Errorf("focus = %d, want 3", eff.Focus)
	}
	if e.Cell(2) != "7" || e.Cell(3) != "8" {
		t.Errorf("cells = %q %q, want 7 8", e.Cell(2), e.Cell(3))
	}
	if eff.Completed {
		t.Error("partial row must not complete")
	}
}

func TestPastePartialFocusOnLastFilled(t *testing.T) {
	e := New(6, nil)

	eff := e.PasteAt(1, "123")
	if eff.Focus != 3 {
		t.Errorf("focus = %d, want last filled cell 3", eff.Focus)
	}
}

func TestSetDigitCompletionEmitsOnce(t *testing.T) {
	var emitted []string
	e := New(4, func(code string) { emitted = append(emitted, code) })

	e.SetDigit(0, "1")
	e.SetDigit(1, "2")
	e.SetDigit(2, "3")
	eff := e.SetDigit(3, "4")

	if !eff.Completed || eff.Code != "1234" {
		t.Fatalf("final digit should complete: %+v", eff)
	}
	if len(emitted) != 1 {
		t.Fatalf("emissions = %v, want one", emitted)
	}

	// Overwriting with the same digit is a no-op edit.
	e.SetDigit(3, "4")
	if len(emitted) != 1 {
		t.Errorf("no-op overwrite re-emitted: %v", emitted)
	}

	// Actually changing a digit of a full row is a new completing mutation.
	e.SetDigit(3, "5")
	if len(emitted) != 2 || emitted[1] != "1235" {
		t.Errorf("changed digit on full row should re-emit, got %v", emitted)
	}
}

func TestBackspaceScenarioFromCapturedDigits(t *testing.T) {
	e := New(4, nil)

	// Capture "99" into the first two cells, then backspace on the empty
	// third cell: focus moves to cell 1 (the second), digits untouched.
	e.SetDigit(0, "9")
	e.SetDigit(1, "9")
	eff := e.BackspaceAt(2)

	if eff.Focus != 1 {
		t.Errorf("focus = %d, want 1", eff.Focus)
	}
	if e.Cell(1) != "9" {
		t.Errorf("second cell = %q, want 9", e.Cell(1))
	}
}

func TestReset(t *testing.T) {
	e := New(4, nil)
	e.PasteAt(0, "1234")
	e.Reset()
	if e.Code() != "" || e.Filled() {
		t.Errorf("reset left state behind: %q", e.Code())
	}
}
