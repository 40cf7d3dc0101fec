package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Accent marks folder names and table headers.
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	// AccentBold is used for the root of a tree and header cells.
	AccentBold = Accent.Bold(true)
	// Muted is for hints and absent values.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	Bold  = lipgloss.NewStyle().Bold(true)
)

const (
	symbolSuccess = "✓"
	symbolWarning = "⚠"
)

// Successf formats a completed-action line.
func Successf(format string, args ...interface{}) string {
	return symbolSuccess + " " + fmt.Sprintf(format, args...)
}

// Warning prefixes msg with a warning symbol.
func Warning(msg string) string {
	return symbolWarning + " " + msg
}

// Header renders an object or type heading.
func Header(msg string) string {
	return Bold.Render(msg)
}

// Hint renders secondary text such as empty-result notes.
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count returns a count with the right noun, e.g. "3 rows".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
