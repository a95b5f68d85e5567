package tui

import "github.com/charmbracelet/lipgloss"

// Tokyo Night palette.
var (
	colorBlue   = lipgloss.Color("#7aa2f7")
	colorGreen  = lipgloss.Color("#9ece6a")
	colorPurple = lipgloss.Color("#bb9af7")
	colorGray   = lipgloss.Color("#565f89")
	colorWhite  = lipgloss.Color("#c0caf5")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorBlue).
			Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	botLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPurple)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)
)
