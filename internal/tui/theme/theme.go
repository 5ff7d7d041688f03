// Package theme provides the Lip Gloss color palette and reusable styles
// for the live viewer TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Connection state colors.
var (
	ColorConnected    = lipgloss.Color("#22c55e")
	ColorConnecting   = lipgloss.Color("#d97706")
	ColorError        = lipgloss.Color("#dc2626")
	ColorDisconnected = lipgloss.Color("#4b5563")
)

// Session status colors.
var (
	ColorActive = lipgloss.Color("#22c55e")
	ColorPaused = lipgloss.Color("#d97706")
	ColorEnded  = lipgloss.Color("#6b7280")
)

// UI chrome colors.
var (
	ColorBorder    = lipgloss.Color("#4b5563")
	ColorDimmed    = lipgloss.Color("#6b7280")
	ColorBright    = lipgloss.Color("#f9fafb")
	ColorHighlight = lipgloss.Color("#f59e0b")
	ColorPrice     = lipgloss.Color("#06b6d4")
)

// ConnectionColor returns the color for a connection status string.
func ConnectionColor(status string) lipgloss.Color {
	switch status {
	case "CONNECTED":
		return ColorConnected
	case "CONNECTING":
		return ColorConnecting
	case "ERROR":
		return ColorError
	default:
		return ColorDisconnected
	}
}

// ConnectionGlyph returns a glyph representing a connection status.
func ConnectionGlyph(status string) string {
	switch status {
	case "CONNECTED":
		return "●"
	case "CONNECTING":
		return "◌"
	case "ERROR":
		return "✗"
	default:
		return "○"
	}
}

// SessionStatusColor returns the color for a session status string.
func SessionStatusColor(status string) lipgloss.Color {
	switch status {
	case "ACTIVE":
		return ColorActive
	case "PAUSED":
		return ColorPaused
	case "ENDED":
		return ColorEnded
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleHighlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHighlight)

	StylePrice = lipgloss.NewStyle().
			Foreground(ColorPrice)

	StyleTotal = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)
