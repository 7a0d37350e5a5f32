// Package ui provides terminal output helpers for the skillhub CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Color function types for styled output.
var (
	Success = color.New(color.FgGreen).SprintFunc()
	Error   = color.New(color.FgRed).SprintFunc()
	Warning = color.New(color.FgYellow).SprintFunc()
	Info    = color.New(color.FgCyan).SprintFunc()
	Bold    = color.New(color.Bold).SprintFunc()
	// Dim is used for secondary information such as timestamps and hashes.
	Dim = color.New(color.Faint).SprintFunc()
	// Header is used for section titles in plain-text reports.
	Header = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Status symbols.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolSkipped = "-"
	SymbolPending = "○"
)

// status prefixes msg with a painted symbol. An empty msg yields the symbol.
func status(paint func(a ...interface{}) string, symbol, msg string) string {
	if msg == "" {
		return paint(symbol)
	}
	return paint(symbol) + " " + msg
}

// StatusSuccess marks a published, installed or saved item.
func StatusSuccess(msg string) string { return status(Success, SymbolSuccess, msg) }

// StatusError marks a failed item.
func StatusError(msg string) string { return status(Error, SymbolError, msg) }

// StatusWarning marks an item that needs attention but did not fail.
func StatusWarning(msg string) string { return status(Warning, SymbolWarning, msg) }

// StatusSkipped marks an item left alone, such as an already synced skill.
func StatusSkipped(msg string) string { return status(Dim, SymbolSkipped, msg) }

// StatusPending marks an item a dry run would act on.
func StatusPending(msg string) string { return status(Info, SymbolPending, msg) }

// ColorMode selects when output is colored.
type ColorMode string

// Color modes accepted by --color style settings.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// detectedNoColor is fatih/color's terminal detection, kept so auto mode can
// be restored after a command forced colors on or off.
var detectedNoColor = color.NoColor

// ParseColorMode parses a color setting. Empty means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (valid: auto, always, never)", s)
	}
}

// SetColorMode applies m to all output helpers.
func SetColorMode(m ColorMode) {
	switch m {
	case ColorAlways:
		EnableColors()
	case ColorNever:
		DisableColors()
	default:
		color.NoColor = detectedNoColor
	}
}

// DisableColors disables all color output.
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled returns whether colors are currently enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}
