package ui

import (
	"github.com/charmbracelet/lipgloss"

	"time-ledger/internal/tracker"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0ea5e9")).MarginBottom(1)
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#94a3b8"))
	activeTab     = tabStyle.Bold(true).Foreground(lipgloss.Color("#f8fafc")).Background(lipgloss.Color("#334155"))
	timerStyle    = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

var severityColors = map[tracker.Severity]lipgloss.Color{
	tracker.SeverityNormal:  lipgloss.Color("#22c55e"),
	tracker.SeverityWarning: lipgloss.Color("#eab308"),
	tracker.SeverityDanger:  lipgloss.Color("#ef4444"),
}

func severityStyle(s tracker.Severity) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(severityColors[s])
}

func swatch(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}
