// Package ui renders fetched data for the terminal. Two modes: rich
// output through lipgloss, and plain output for pipes and dumb
// terminals.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Mode selects rich or plain rendering.
type Mode string

const (
	ModeRich  Mode = "rich"
	ModePlain Mode = "plain"
)

var (
	accentCyan   = lipgloss.Color("#00FFFF")
	accentGreen  = lipgloss.Color("#39FF14")
	accentYellow = lipgloss.Color("#FFFF00")
	accentPink   = lipgloss.Color("#FF10F0")
	accentRed    = lipgloss.Color("#FF5555")
	dimGray      = lipgloss.Color("#B0B0B0")

	titleStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(accentCyan)

	valueStyle = lipgloss.NewStyle().
			Foreground(accentYellow)

	successStyle = lipgloss.NewStyle().
			Foreground(accentGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(accentRed).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(accentPink)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			Faint(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentCyan).
			Padding(0, 1)

	headerRowStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true).
			Underline(true)
)

// Banner printed when the REPL starts.
const Banner = `igstat - Instagram analytics terminal
Type "help" for commands, or just ask a question.`
