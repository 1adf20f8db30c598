// ABOUTME: Defines lipgloss style constants for the formula workbench layout and feedback lines.
// ABOUTME: Provides StyleForIssue to map validation issue kinds to their display styles.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/galton/formula"
)

var (
	// Input box border
	InputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Node identity line
	NodeNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75"))
	NodeKindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// Validation feedback
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	WarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	OKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	// Suggestion dropdown
	SuggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
	SelectedSuggestionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Bold(true)
	SuggestionDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	// Help footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// StyleForIssue returns the style for a validation issue kind. Syntax
// issues render as errors, unresolved references as warnings.
func StyleForIssue(kind formula.IssueKind) lipgloss.Style {
	if kind == formula.IssueReference {
		return WarnStyle
	}
	return ErrorStyle
}
