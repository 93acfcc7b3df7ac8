package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/dashboard"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const (
	tabForecast = iota
	tabCompare
	tabStores
)

// insightStats turns the insight view into the four headline cards.
func insightStats(v dashboard.InsightsView) []components.Stat {
	t := theme.Active
	ins := v.Insight

	actualNote := fmt.Sprintf("%s .. %s", ins.WindowStart.Format("Jan 02"), ins.WindowEnd.Format("Jan 02"))
	if v.AggregateActuals {
		actualNote = "chain total"
	}

	trendColor := t.Red
	arrow := "▼ "
	if ins.Trend == model.TrendUpward {
		trendColor = t.Green
		arrow = "▲ "
	}

	return []components.Stat{
		{Label: "Avg Actual (30d)", Value: cli.FormatSales(ins.AvgActual), Note: actualNote},
		{Label: "Avg Forecast (30d)", Value: cli.FormatSales(ins.AvgForecast), Note: cli.FormatDelta(ins.AvgForecast, ins.AvgActual) + " vs actual"},
		{Label: "Trend", Value: arrow + ins.Trend.String(), Color: trendColor},
		{Label: "Next 30 days", Value: cli.FormatCompact(v.Outlook.Next30), Note: "from " + cli.FormatDate(v.Outlook.From)},
	}
}

func (a App) renderForecastTab(cw, h int) string {
	t := theme.Active
	var b strings.Builder

	cards := components.MetricCardRow(insightStats(a.view.Insights), cw)
	b.WriteString(cards)
	b.WriteString("\n")

	fv := a.view.Forecast
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	// cards, card border and title, axis and caption, metrics line
	chartH := max(h-lipgloss.Height(cards)-7, 6)
	inner := components.CardInnerWidth(cw)

	var body string
	if len(fv.Rows) == 0 {
		body = mutedStyle.Render("No forecast rows in the selected range")
	} else {
		points := make([]components.LinePoint, len(fv.Rows))
		for i, r := range fv.Rows {
			points[i] = components.LinePoint{
				Yhat:      r.Yhat,
				Lower:     r.YhatLower,
				Upper:     r.YhatUpper,
				Actual:    r.ActualOrZero(),
				HasActual: r.HasActual(),
			}
		}
		first, last := fv.Rows[0].DS, fv.Rows[len(fv.Rows)-1].DS
		body = components.LineChart(points, cli.FormatDate(first), cli.FormatDate(last), inner, chartH)
	}

	title := fmt.Sprintf("Store %s · Forecast vs Actual  %s", fv.Store, legend())
	b.WriteString(components.ContentCard(title, body, cw))
	b.WriteString("\n")

	metricsStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Background).Bold(true)
	line := fv.MetricsLine
	if fv.Metrics.Matched > 0 {
		line += fmt.Sprintf("  (%s days with actuals)", cli.FormatNumber(int64(fv.Metrics.Matched)))
	}
	b.WriteString(lipgloss.PlaceHorizontal(cw, lipgloss.Center, metricsStyle.Render(line),
		lipgloss.WithWhitespaceBackground(t.Background)))
	return b.String()
}

func legend() string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	return lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render("•") + dim.Render(" forecast ") +
		lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render("◆") + dim.Render(" actual ") +
		lipgloss.NewStyle().Foreground(t.Band).Background(t.Surface).Render("░") + dim.Render(" interval")
}
