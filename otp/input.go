package otp

import (
	"regexp"
	"strings"
)

// Length is the number of digits in a verification code.
const Length = 4

var fullCode = regexp.MustCompile(`^\d{4}$`)

// Input is a fixed row of single-digit cells with one focused cell.
// The zero value is an empty input focused on the first cell.
type Input struct {
	cells [Length]rune
	focus int
}

// Type writes r into the focused cell and advances focus. Non-digits are
// ignored.
func (in *Input) Type(r rune) {
	if r < '0' || r > '9' {
		return
	}
	in.cells[in.focus] = r
	if in.focus < Length-1 {
		in.focus++
	}
}

// Backspace moves back from an empty cell, otherwise clears the focused cell.
func (in *Input) Backspace() {
	if in.cells[in.focus] == 0 && in.focus > 0 {
		in.focus--
		return
	}
	in.cells[in.focus] = 0
}

// Paste fills every cell from s when s (trimmed) is exactly four digits and
// focuses the last cell. Any other input leaves the cells unchanged.
func (in *Input) Paste(s string) bool {
	s = strings.TrimSpace(s)
	if !fullCode.MatchString(s) {
		return false
	}
	for i, r := range s {
		in.cells[i] = r
	}
	in.focus = Length - 1
	return true
}

// MoveFocus shifts focus by delta, clamped to the cell range.
func (in *Input) MoveFocus(delta int) {
	in.focus = min(max(in.focus+delta, 0), Length-1)
}

// Value joins the filled cells. Empty cells are skipped.
func (in *Input) Value() string {
	var b strings.Builder
	for _, r := range in.cells {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Complete reports whether every cell holds a digit.
func (in *Input) Complete() bool {
	for _, r := range in.cells {
		if r == 0 {
			return false
		}
	}
	return true
}

// Cells returns the cell contents; empty cells are "".
func (in *Input) Cells() [Length]string {
	var out [Length]string
	for i, r := range in.cells {
		if r != 0 {
			out[i] = string(r)
		}
	}
	return out
}

// Focus returns the index of the focused cell.
func (in *Input) Focus() int { return in.focus }

// Reset empties every cell and focuses the first.
func (in *Input) Reset() {
	*in = Input{}
}
