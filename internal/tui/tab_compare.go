package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func barGroups(periods []model.PeriodStats, label func(string) string) []components.BarGroup {
	out := make([]components.BarGroup, len(periods))
	for i, p := range periods {
		out[i] = components.BarGroup{Label: label(p.Period), Actual: p.Actual, Forecast: p.Forecast}
	}
	return out
}

// monthLabel shortens "2015-07" to "Jul15"-style labels that fit under a bar pair.
func monthLabel(period string) string {
	if len(period) != 7 {
		return period
	}
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	var m int
	if _, err := fmt.Sscanf(period[5:], "%d", &m); err != nil || m < 1 || m > 12 {
		return period
	}
	return months[m-1] + period[2:4]
}

func (a App) renderCompareTab(cw, h int) string {
	t := theme.Active
	cv := a.view.Comparisons
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(cv.Monthly) == 0 {
		return components.ContentCard("Comparison", mutedStyle.Render("No rows in the selected range"), cw)
	}

	var cards []string
	if a.isCompactLayout() {
		chartH := max((h-8)/2-3, 4)
		cards = append(cards,
			components.ContentCard("Monthly Comparison", components.GroupedBarChart(barGroups(cv.Monthly, monthLabel), components.CardInnerWidth(cw), chartH), cw),
			components.ContentCard("Yearly Comparison", a.yearlyBody(components.CardInnerWidth(cw), chartH), cw),
		)
		return strings.Join(cards, "\n")
	}

	widths := []int{cw * 2 / 3, cw - cw*2/3}
	chartH := max(h-6, 6)
	cards = append(cards,
		components.ContentCard("Monthly Comparison", components.GroupedBarChart(barGroups(cv.Monthly, monthLabel), components.CardInnerWidth(widths[0]), chartH), widths[0]),
		components.ContentCard("Yearly Comparison", a.yearlyBody(components.CardInnerWidth(widths[1]), chartH-5), widths[1]),
	)
	return components.CardRow(cards)
}

// yearlyBody is the yearly bar chart followed by per-year totals.
func (a App) yearlyBody(w, chartH int) string {
	t := theme.Active
	years := a.view.Comparisons.Yearly
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(components.GroupedBarChart(barGroups(years, func(p string) string { return p }), w, max(chartH, 4)))
	b.WriteString("\n\n")
	for _, y := range years {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-5s", y.Period)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" %9s actual  %9s forecast",
			cli.FormatCompact(y.Actual), cli.FormatCompact(y.Forecast))))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
