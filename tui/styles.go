// Package tui provides the terminal UI for DoodlePress using Charm libraries
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette - Catppuccin Mocha inspired with some custom touches
var (
	// Primary colors
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"} // Violet
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#0EA5E9", Dark: "#38BDF8"} // Sky blue
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"} // Amber

	// Semantic colors
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"} // Emerald
	ColorWarning = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"} // Amber
	ColorError   = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"} // Red
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#6366F1", Dark: "#818CF8"} // Indigo

	// Neutral colors
	ColorText   = lipgloss.AdaptiveColor{Light: "#1E293B", Dark: "#F1F5F9"}
	ColorSubtle = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#64748B"}
	ColorBorder = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}

	// Special colors
	ColorCrayon = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"} // Crayon orange
)

// Base styles
var (
	// Text styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			MarginBottom(1)

	BodyStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Status styles
	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	// Component styles
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	FocusedBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// Application header with ASCII art
var DoodleASCII = `
  ___                 _ _     ___
 |   \ ___  ___  __ _| | |___| _ \_ _ ___ ______
 | |) / _ \/ _ \/ _  | | / -_)  _/ '_/ -_|_-<_-<
 |___/\___/\___/\__,_|_|_\___|_| |_| \___/__/__/
`

// GetHeader returns the styled application header
func GetHeader() string {
	return lipgloss.NewStyle().
		Foreground(ColorCrayon).
		Bold(true).
		Render(DoodleASCII)
}

// SpinnerFrames contains frames for the crayon spinner animation
var SpinnerFrames = []string{
	"(c==    ",
	"(c===   ",
	"(c====  ",
	"(c===== ",
	"(c======",
	"(c===== ",
	"(c====  ",
	"(c===   ",
}
