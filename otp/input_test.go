package otp

import "testing"

func TestInputTypeAdvancesAndStopsAtLast(t *testing.T) {
	var in Input
	for _, r := range "12345" {
		in.Type(r)
	}
	if got := in.Value(); got != "1235" {
		t.Fatalf("Value = %q, want 1235 (last cell overwritten)", got)
	}
	if in.Focus() != Length-1 {
		t.Fatalf("Focus = %d", in.Focus())
	}
	if !in.Complete() {
		t.Fatal("expected complete")
	}
}

func TestInputIgnoresNonDigits(t *testing.T) {
	var in Input
	in.Type('a')
	in.Type(' ')
	in.Type('٣') // arabic-indic three
	if in.Value() != "" || in.Focus() != 0 {
		t.Fatalf("non-digit changed input: %q focus=%d", in.Value(), in.Focus())
	}
}

func TestInputBackspace(t *testing.T) {
	var in Input
	in.Type('1')
	in.Type('2')
	// Focus is on the empty third cell: backspace moves back first.
	in.Backspace()
	if in.Focus() != 1 || in.Value() != "12" {
		t.Fatalf("after first backspace focus=%d value=%q", in.Focus(), in.Value())
	}
	in.Backspace()
	if in.Focus() != 1 || in.Value() != "1" {
		t.Fatalf("after second backspace focus=%d value=%q", in.Focus(), in.Value())
	}
	in.Backspace()
	in.Backspace()
	if in.Focus() != 0 || in.Value() != "" {
		t.Fatalf("after clearing focus=%d value=%q", in.Focus(), in.Value())
	}
	in.Backspace()
	if in.Focus() != 0 {
		t.Fatal("focus must not go below zero")
	}
}

func TestInputPaste(t *testing.T) {
	tests := []struct {
		paste string
		ok    bool
		want  string
	}{
		{"4821", true, "4821"},
		{"  4821\n", true, "4821"},
		{"482", false, "9"},
		{"48210", false, "9"},
		{"48a1", false, "9"},
		{"", false, "9"},
	}
	for _, tc := range tests {
		var in Input
		in.Type('9')
		if ok := in.Paste(tc.paste); ok != tc.ok {
			t.Fatalf("Paste(%q) = %v", tc.paste, ok)
		}
		if in.Value() != tc.want {
			t.Fatalf("Paste(%q) value = %q, want %q", tc.paste, in.Value(), tc.want)
		}
		if tc.ok && in.Focus() != Length-1 {
			t.Fatalf("Paste(%q) focus = %d", tc.paste, in.Focus())
		}
		if !tc.ok && in.Focus() != 1 {
			t.Fatalf("rejected paste moved focus to %d", in.Focus())
		}
	}
}

func TestInputMoveFocusAndReset(t *testing.T) {
	var in Input
	in.MoveFocus(-3)
	if in.Focus() != 0 {
		t.Fatalf("focus = %d", in.Focus())
	}
	in.MoveFocus(10)
	if in.Focus() != Length-1 {
		t.Fatalf("focus = %d", in.Focus())
	}
	in.Type('7')
	if in.Cells() != [Length]string{"", "", "", "7"} {
		t.Fatalf("cells = %v", in.Cells())
	}
	in.Reset()
	if in.Value() != "" || in.Focus() != 0 {
		t.Fatal("reset must clear")
	}
}
