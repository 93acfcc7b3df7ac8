package components

import (
	"strings"

	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status is the content of the bottom status bar.
type Status struct {
	Store   string
	Range   string
	Message string
	Warning bool
	LoadAge string
}

// RenderStatusBar renders the bottom status bar: key hints on the left,
// the current message in the middle and the selection on the right.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	msgStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	if s.Warning {
		msgStyle = msgStyle.Foreground(t.Orange)
	}

	left := base.Render(" ") +
		keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("f") + base.Render(" filter  ") +
		keyStyle.Render("t") + base.Render(" theme  ") +
		keyStyle.Render("d") + base.Render(" download  ") +
		keyStyle.Render("q") + base.Render(" quit")

	var parts []string
	if s.Store != "" {
		parts = append(parts, "Store "+s.Store)
	}
	if s.Range != "" {
		parts = append(parts, s.Range)
	}
	if s.LoadAge != "" {
		parts = append(parts, "loaded in "+s.LoadAge)
	}
	right := base.Render(strings.Join(parts, " │ ") + " ")

	middle := ""
	if s.Message != "" {
		middle = msgStyle.Render("  " + s.Message)
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(middle)-lipgloss.Width(right), 0)
	bar := left + middle + base.Render(strings.Repeat(" ", padding)) + right
	return lipgloss.NewStyle().Background(t.Surface).MaxWidth(width).Render(bar)
}
