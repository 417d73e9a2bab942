package ui

import (
	"fmt"
	"strings"

	"time-ledger/internal/tracker"

	"github.com/charmbracelet/lipgloss"
)

const barWidth = 30

// View renders the model
func (m Model) View() string {
	var b strings.Builder

	tabs := make([]string, 0, 2)
	for _, v := range []View{ViewTimer, ViewAnalytics} {
		if v == m.view {
			tabs = append(tabs, activeTab.Render(v.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(v.String()))
		}
	}
	b.WriteString(titleStyle.Render("Time Ledger"))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	if m.view == ViewAnalytics {
		b.WriteString(m.analyticsView())
	} else {
		b.WriteString(m.timerView())
	}

	b.WriteString("\n")
	if m.errorMsg != "" {
		b.WriteString(errorStyle.Render(m.errorMsg))
		b.WriteString("\n")
	} else if m.statusMsg != "" {
		b.WriteString(statusStyle.Render(m.statusMsg))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) clientName(id string) (string, string) {
	for _, c := range m.clients {
		if c.ID == id {
			color := c.Color
			if color == "" {
				color = tracker.ClientColor(c.Name)
			}
			return c.Name, color
		}
	}
	return "?", "#64748b"
}

func (m Model) timerView() string {
	var b strings.Builder
	active, ok := m.store.Active()
	if !ok {
		b.WriteString("Task\n")
		b.WriteString(m.task.View())
		b.WriteString("\n\nClient\n")
		if len(m.clients) == 0 {
			b.WriteString(subtleStyle.Render("  no clients yet"))
			b.WriteString("\n")
		}
		for i, c := range m.clients {
			line := fmt.Sprintf("%s %s", swatch(c.Color), c.Name)
			if i == m.clientCursor {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if m.target != nil {
			b.WriteString(subtleStyle.Render("\ngoal " + tracker.FormatDuration(*m.target)))
			b.WriteString("\n")
		}
		return b.String()
	}

	now := tracker.Millis(m.store.Now())
	name, color := m.clientName(active.ClientID)
	b.WriteString(fmt.Sprintf("%s %s  %s\n", swatch(color), name, active.TaskName))

	display := tracker.FormatDuration(tracker.EffectiveDuration(active, now))
	if g, ok := tracker.Goal(active, now); ok {
		remaining := g.Remaining
		if remaining < 0 {
			remaining = -remaining
		}
		display = tracker.FormatDuration(remaining)
		if g.IsOvertime {
			display = "+" + display
		}
		b.WriteString(timerStyle.BorderForeground(severityColors[g.Severity]).Render(severityStyle(g.Severity).Render(display)))
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(fmt.Sprintf("elapsed %s of %s",
			tracker.FormatDuration(tracker.EffectiveDuration(active, now)), tracker.FormatDuration(g.Target))))
	} else {
		b.WriteString(timerStyle.Render(display))
	}
	b.WriteString("\n")
	if active.State() == tracker.Paused {
		b.WriteString(subtleStyle.Render("paused"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) analyticsView() string {
	var b strings.Builder
	r := m.store.Report(m.filter)

	b.WriteString(fmt.Sprintf("%s  total %s (%.1fh)\n\n", selectedStyle.Render(m.filter.Label()),
		tracker.FormatDuration(r.Total), tracker.Hours(r.Total)))

	if len(r.ClientGroups) == 0 {
		b.WriteString(subtleStyle.Render("no time tracked in this period"))
		b.WriteString("\n")
	}
	now := tracker.Millis(m.store.Now())
	loc := m.store.Location()
	for i, row := range m.accordionRows(r) {
		marker := "▸"
		if m.expanded[row.key()] {
			marker = "▾"
		}
		var line string
		if row.task == nil {
			g := row.group
			line = fmt.Sprintf("%s %s %s  %s", marker, swatch(g.ClientColor), g.ClientName, tracker.FormatDuration(g.TotalDuration))
		} else {
			t := row.task
			line = fmt.Sprintf("    %s %s  %s  %s", marker, t.TaskName, tracker.FormatDuration(t.TotalDuration),
				subtleStyle.Render(fmt.Sprintf("%d entries", t.EntryCount)))
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")

		if row.task == nil || !m.expanded[row.key()] {
			continue
		}
		for _, e := range row.task.Entries {
			start := tracker.FromMillis(e.StartTime, loc).Format("15:04")
			end := "now"
			if e.EndTime != nil {
				end = tracker.FromMillis(*e.EndTime, loc).Format("15:04")
			}
			entry := fmt.Sprintf("        %s %s-%s  %s", e.Date, start, end, tracker.FormatDuration(tracker.EffectiveDuration(e, now)))
			if e.Comment != "" {
				entry += "  " + subtleStyle.Render(e.Comment)
			}
			b.WriteString(entry)
			b.WriteString("\n")
		}
	}

	if len(r.Daily) > 0 {
		b.WriteString("\n")
		b.WriteString(dailyChart(r.Daily))
	}
	return b.String()
}

func dailyChart(days []tracker.DailyBucket) string {
	var peak int64
	for _, d := range days {
		if d.Seconds > peak {
			peak = d.Seconds
		}
	}
	var b strings.Builder
	for _, d := range days {
		n := 0
		if peak > 0 {
			n = int(d.Seconds * barWidth / peak)
		}
		b.WriteString(fmt.Sprintf("%s %s %4.1fh\n", d.Date[5:], strings.Repeat("█", n)+strings.Repeat("·", barWidth-n), d.Hours))
	}
	return b.String()
}
