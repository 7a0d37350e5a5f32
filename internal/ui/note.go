package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	introStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1)
	noteStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	noteTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	outroStyle = lipgloss.NewStyle().Bold(true)
)

// Intro renders the banner that opens a multi-step command.
func Intro(title string) string {
	if !IsColorEnabled() {
		return "== " + title + " =="
	}
	return introStyle.Render(title)
}

// Note renders body in a bordered box headed by title. Empty bodies render
// nothing.
func Note(title, body string) string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return ""
	}
	if !IsColorEnabled() {
		return title + ":\n" + body
	}
	return noteStyle.Render(noteTitle.Render(title) + "\n" + body)
}

// Outro renders the closing line of a multi-step command.
func Outro(msg string) string {
	if !IsColorEnabled() {
		return msg
	}
	return outroStyle.Render(msg)
}
