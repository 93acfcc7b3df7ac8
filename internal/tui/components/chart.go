package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// LinePoint is one day of a forecast chart.
type LinePoint struct {
	Yhat      float64
	Lower     float64
	Upper     float64
	Actual    float64
	HasActual bool
}

// BarGroup is one period of a grouped bar chart.
type BarGroup struct {
	Label    string
	Actual   float64
	Forecast float64
}

// Sparkline renders a unicode sparkline scaled to the series peak.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		buf.WriteRune(blocks[max(0, min(idx, len(blocks)-1))])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// LineChart plots yhat as a line over its shaded uncertainty band, with
// actual values as markers. Points are bucketed into columns when there are
// more points than columns. firstLabel and lastLabel caption the x axis.
func LineChart(points []LinePoint, firstLabel, lastLabel string, width, height int) string {
	if len(points) == 0 {
		return ""
	}
	t := theme.Active
	height = max(height, 4)

	cols := bucketLine(points, max(width-axisWidth(points)-1, 5))

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range cols {
		lo = min(lo, c.Lower, c.Yhat)
		hi = max(hi, c.Upper, c.Yhat)
		if c.HasActual {
			lo = min(lo, c.Actual)
			hi = max(hi, c.Actual)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	span := hi - lo

	rowOf := func(v float64) int {
		r := int(math.Round((hi - v) / span * float64(height-1)))
		return max(0, min(r, height-1))
	}

	const (
		cellEmpty = iota
		cellBand
		cellLine
		cellActual
	)
	grid := make([][]int, height)
	for r := range grid {
		grid[r] = make([]int, len(cols))
	}
	for x, c := range cols {
		for r := rowOf(c.Upper); r <= rowOf(c.Lower); r++ {
			grid[r][x] = cellBand
		}
		grid[rowOf(c.Yhat)][x] = cellLine
		if c.HasActual {
			grid[rowOf(c.Actual)][x] = cellActual
		}
	}

	yLabelW := axisWidth(points)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bandStyle := lipgloss.NewStyle().Foreground(t.Band).Background(t.Surface)
	lineStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	actualStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	blankStyle := lipgloss.NewStyle().Background(t.Surface)

	ticks := make(map[int]string, 3)
	ticks[0] = formatChartLabel(hi)
	ticks[(height-1)/2] = formatChartLabel(hi - span/2)
	ticks[height-1] = formatChartLabel(lo)

	var b strings.Builder
	for r := 0; r < height; r++ {
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, ticks[r])))
		b.WriteString(axisStyle.Render("│"))
		for x := range cols {
			switch grid[r][x] {
			case cellBand:
				b.WriteString(bandStyle.Render("░"))
			case cellLine:
				b.WriteString(lineStyle.Render("•"))
			case cellActual:
				b.WriteString(actualStyle.Render("◆"))
			default:
				b.WriteString(blankStyle.Render(" "))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(strings.Repeat(" ", yLabelW) + "└" + strings.Repeat("─", len(cols))))
	b.WriteString("\n")
	gap := max(len(cols)-lipgloss.Width(firstLabel)-lipgloss.Width(lastLabel), 1)
	b.WriteString(axisStyle.Render(strings.Repeat(" ", yLabelW+1) + firstLabel + strings.Repeat(" ", gap) + lastLabel))
	return b.String()
}

// bucketLine averages consecutive points into at most n columns.
func bucketLine(points []LinePoint, n int) []LinePoint {
	if len(points) <= n {
		return points
	}
	out := make([]LinePoint, n)
	for i := range out {
		from := i * len(points) / n
		to := max((i+1)*len(points)/n, from+1)
		var c LinePoint
		actuals := 0
		for _, p := range points[from:to] {
			c.Yhat += p.Yhat
			c.Lower += p.Lower
			c.Upper += p.Upper
			if p.HasActual {
				c.Actual += p.Actual
				actuals++
			}
		}
		k := float64(to - from)
		c.Yhat /= k
		c.Lower /= k
		c.Upper /= k
		if actuals > 0 {
			c.Actual /= float64(actuals)
			c.HasActual = true
		}
		out[i] = c
	}
	return out
}

func axisWidth(points []LinePoint) int {
	w := 4
	for _, p := range points {
		w = max(w, len(formatChartLabel(p.Upper))+1, len(formatChartLabel(p.Lower))+1)
	}
	return w
}

// GroupedBarChart renders actual and forecast bars side by side per period
// with a labelled y axis. When the groups do not fit the width, the kept
// window ends at the last group with an actual, or at the last group when
// none has one.
func GroupedBarChart(groups []BarGroup, width, height int) string {
	if len(groups) == 0 {
		return ""
	}
	t := theme.Active
	height = max(height, 3)

	maxVal := 0.0
	for _, g := range groups {
		maxVal = max(maxVal, g.Actual, g.Forecast)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	tickStep := chartTickStep(maxVal)
	maxIntervals := max(height/2, 2)
	for int(math.Ceil(maxVal/tickStep)) > maxIntervals {
		tickStep *= 2
	}
	ceiling := math.Ceil(maxVal/tickStep) * tickStep
	numIntervals := max(int(math.Round(ceiling/tickStep)), 1)
	rowsPerTick := max(height/numIntervals, 2)
	chartH := rowsPerTick * numIntervals

	yLabelW := max(len(formatChartLabel(ceiling))+1, 4)
	tickLabels := make(map[int]string, numIntervals)
	for i := 1; i <= numIntervals; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(tickStep * float64(i))
	}

	chartW := max(width-yLabelW-1, 5)

	// each group is two bars and a one-column gap
	barW := max(min((chartW+1)/len(groups)-1, 8)/2, 1)
	groupW := 2*barW + 1
	if fit := max((chartW+1)/groupW, 1); fit < len(groups) {
		end := len(groups)
		for i := len(groups) - 1; i >= 0; i-- {
			if groups[i].Actual > 0 {
				end = i + 1
				break
			}
		}
		start := max(end-fit, 0)
		groups = groups[start : start+fit]
	}
	n := len(groups)
	axisLen := n*groupW - 1

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	actualStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	forecastStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	blankStyle := lipgloss.NewStyle().Background(t.Surface)

	cell := func(v, rowTop, rowBottom float64) string {
		switch {
		case v >= rowTop:
			return strings.Repeat("█", barW)
		case v > rowBottom:
			idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
			return strings.Repeat(string(blocks[max(1, min(idx, 8))]), barW)
		default:
			return strings.Repeat(" ", barW)
		}
	}

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(chartH)
		rowBottom := ceiling * float64(row-1) / float64(chartH)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[row])))
		b.WriteString(axisStyle.Render("│"))
		for i, g := range groups {
			if i > 0 {
				b.WriteString(blankStyle.Render(" "))
			}
			b.WriteString(actualStyle.Render(cell(max(g.Actual, 0), rowTop, rowBottom)))
			b.WriteString(forecastStyle.Render(cell(max(g.Forecast, 0), rowTop, rowBottom)))
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", axisLen)))

	// x labels, skipping any that would overlap the previous one
	buf := []byte(strings.Repeat(" ", axisLen))
	lastEnd := -1
	for i, g := range groups {
		pos := i * groupW
		lbl := g.Label
		if pos <= lastEnd || pos+len(lbl) > axisLen {
			continue
		}
		copy(buf[pos:], lbl)
		lastEnd = pos + len(lbl)
	}
	b.WriteString("\n")
	b.WriteString(blankStyle.Render(strings.Repeat(" ", yLabelW+1)))
	b.WriteString(axisStyle.Render(strings.TrimRight(string(buf), " ")))
	b.WriteString("\n")
	b.WriteString(blankStyle.Render(strings.Repeat(" ", yLabelW+1)))
	b.WriteString(actualStyle.Render("█"))
	b.WriteString(axisStyle.Render(" Actual  "))
	b.WriteString(forecastStyle.Render("█"))
	b.WriteString(axisStyle.Render(" Forecast"))
	return b.String()
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))

	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	if v < 0 {
		return "-" + formatChartLabel(-v)
	}
	unit := func(div float64, suffix string) string {
		if v == math.Trunc(v/div)*div {
			return fmt.Sprintf("%.0f%s", v/div, suffix)
		}
		return fmt.Sprintf("%.1f%s", v/div, suffix)
	}
	switch {
	case v >= 1e9:
		return unit(1e9, "B")
	case v >= 1e6:
		return unit(1e6, "M")
	case v >= 1e3:
		return unit(1e3, "k")
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
