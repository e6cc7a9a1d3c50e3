package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF5555")
	ColorGreen   = lipgloss.Color("#50FA7B")
	ColorYellow  = lipgloss.Color("#F1FA8C")
	ColorCyan    = lipgloss.Color("#8BE9FD")
	ColorBlue    = lipgloss.Color("#1E40AF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF79C6")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	TimerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	TimerWarningStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorRed)

	WordCountStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	WordTargetStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	BandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue).
			Background(lipgloss.Color("#EBF4FF")).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCyan)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorRed).
			Padding(1, 2)
)

// Correction markup styles.
var (
	DeletedStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Strikethrough(true)

	HandwrittenStyle = lipgloss.NewStyle().
				Foreground(ColorCyan).
				Italic(true)
)
