// Package cliui provides reusable terminal UI helpers (shared styles, status
// marks) for fable CLI commands.
package cliui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	// KeyStyle renders labels and config keys.
	KeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)

	// ValueStyle renders config and metadata values.
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	// NameStyle renders entity names (books, models, personas).
	NameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))

	// DimStyle renders secondary hints and paths.
	DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// ThinkingStyle renders model thinking indicators in the chat client.
	ThinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
