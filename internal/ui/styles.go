// Package ui provides terminal output styling for the CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	// PassStyle renders passing check markers.
	PassStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	// WarnStyle renders warnings.
	WarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	// FailStyle renders failures.
	FailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	// DimStyle renders suggestions and secondary detail.
	DimStyle = lipgloss.NewStyle().Faint(true)
	// HeaderStyle renders section headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// IsTerminal reports whether stdout is attached to a terminal. Styling is
// skipped when output is piped.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Render applies the style only when stdout is a terminal.
func Render(style lipgloss.Style, s string) string {
	if !IsTerminal() {
		return s
	}
	return style.Render(s)
}
