package ui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha palette.
var (
	colorGreen = lipgloss.Color("#a6e3a1")
	colorRed   = lipgloss.Color("#f38ba8")
	colorMauve = lipgloss.Color("#cba6f7")
	colorMuted = lipgloss.Color("#5a6278")
)

var (
	styleLabel = lipgloss.NewStyle().Bold(true).Foreground(colorMauve)
	styleYes   = lipgloss.NewStyle().Foreground(colorGreen)
	styleNo    = lipgloss.NewStyle().Foreground(colorRed)
	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)
)
