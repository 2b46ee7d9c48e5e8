package main

import "github.com/charmbracelet/lipgloss"

type styles struct {
	ok     lipgloss.Style
	warn   lipgloss.Style
	fail   lipgloss.Style
	label  lipgloss.Style
	banner lipgloss.Style
}

// newStyles colours output only on a terminal.
func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{ok: plain, warn: plain, fail: plain, label: plain, banner: plain}
	}
	return styles{
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("35")).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		banner: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
	}
}
