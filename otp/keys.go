package otp

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of [Model].
type KeyMap struct {
	Digit     key.Binding
	Backspace key.Binding
	Left      key.Binding
	Right     key.Binding
	Submit    key.Binding
	Resend    key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Digit: key.NewBinding(
		key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("0-9", "digit"),
	),
	Backspace: key.NewBinding(
		key.WithKeys("backspace", "delete"),
		key.WithHelp("⌫", "erase"),
	),
	Left: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "prev"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "tab"),
		key.WithHelp("→", "next"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "verify"),
	),
	Resend: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "resend code"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Digit, k.Submit, k.Resend, k.Cancel}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Digit, k.Backspace, k.Left, k.Right},
		{k.Submit, k.Resend, k.Cancel},
	}
}
