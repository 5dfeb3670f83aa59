package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	grabbedStyle  = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

const (
	boxChecked   = "[x]"
	boxUnchecked = "[ ]"
)

// categoryBadge styles a category badge with its stored color, falling back
// to the default badge color for unregistered categories.
func categoryBadge(color string) lipgloss.Style {
	if color == "" {
		return badgeStyle
	}
	return badgeStyle.Foreground(lipgloss.Color(color))
}

// Ok prints a success message to stdout; for the non-interactive CLI paths.
func Ok(msg string) {
	fmt.Println(successStyle.Render("✔ " + msg))
}

// Fail prints an error message to stderr; for the non-interactive CLI paths.
func Fail(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+msg))
}
