package ui

import "github.com/charmbracelet/lipgloss"

// Palette uses ANSI colors so the monitor follows the terminal theme.
var (
	colorBorder = lipgloss.ANSIColor(8)
	colorTrace  = lipgloss.ANSIColor(10)
	colorCursor = lipgloss.ANSIColor(8)
	colorText   = lipgloss.ANSIColor(7)
	colorNormal = lipgloss.ANSIColor(10)
	colorWarn   = lipgloss.ANSIColor(11)
	colorAlarm  = lipgloss.ANSIColor(9)
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorTrace).
			Bold(true)

	traceStyle = lipgloss.NewStyle().
			Foreground(colorTrace)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorCursor)

	bpmStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorBorder)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorAlarm)
)

// statusStyles colors the rhythm label by severity.
var statusStyles = map[string]lipgloss.Style{
	"Normal":      lipgloss.NewStyle().Foreground(colorNormal).Bold(true),
	"Bradycardia": lipgloss.NewStyle().Foreground(colorWarn).Bold(true),
	"Tachycardia": lipgloss.NewStyle().Foreground(colorAlarm).Bold(true),
	"No signal":   lipgloss.NewStyle().Foreground(colorBorder),
	"Leads off":   lipgloss.NewStyle().Foreground(colorAlarm).Bold(true),
}
