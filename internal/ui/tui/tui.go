// Package tui provides the interactive terminal pickers used by skillhub.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles shared by the pickers.
var Styles = struct {
	Title    lipgloss.Style
	Help     lipgloss.Style
	Accent   lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
}

// Run starts a full-screen BubbleTea program and returns its final model.
func Run(model tea.Model) (tea.Model, error) {
	return tea.NewProgram(model, tea.WithAltScreen()).Run()
}
