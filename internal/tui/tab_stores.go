package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// storesState holds the stores tab state.
type storesState struct {
	cursor    int
	offset    int // scroll offset for the list
	searching bool
	input     textinput.Model
	query     string
}

func newStoresState() storesState {
	return storesState{input: newSearchInput()}
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "store id"
	ti.Prompt = "/ "
	ti.CharLimit = 16
	ti.Width = 20
	return ti
}

func (s *storesState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

func (s *storesState) clamp(n int) {
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// visibleSummaries returns the store summaries matching the search query.
func (a App) visibleSummaries() []model.StoreSummary {
	q := strings.TrimSpace(a.stores.query)
	if q == "" {
		return a.summaries
	}
	var out []model.StoreSummary
	for _, s := range a.summaries {
		if strings.Contains(s.Store, q) {
			out = append(out, s)
		}
	}
	return out
}

// updateStoresKeys handles stores tab navigation. handled is false for keys
// the tab does not own.
func (a App) updateStoresKeys(key string) (m tea.Model, cmd tea.Cmd, handled bool) {
	visible := a.visibleSummaries()
	switch key {
	case "/":
		a.stores.searching = true
		a.stores.input = newSearchInput()
		a.stores.input.SetValue(a.stores.query)
		a.stores.input.Focus()
		return a, textinput.Blink, true
	case "j", "down":
		a.stores.move(1, len(visible))
	case "k", "up":
		a.stores.move(-1, len(visible))
	case "g", "home":
		a.stores.cursor = 0
	case "G", "end":
		a.stores.move(len(visible), len(visible))
	case "enter":
		if a.stores.cursor < len(visible) {
			next := a.in
			next.Store = visible[a.stores.cursor].Store
			a.apply(next)
			a.activeTab = tabForecast
		}
	case "esc":
		if a.stores.query == "" {
			return a, nil, false
		}
		a.stores.query = ""
		a.stores.cursor = 0
		a.stores.offset = 0
	default:
		return a, nil, false
	}
	return a, nil, true
}

// updateStoresSearch handles key events while the search input has focus.
func (a App) updateStoresSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.stores.query = strings.TrimSpace(a.stores.input.Value())
		a.stores.searching = false
		a.stores.cursor = 0
		a.stores.offset = 0
		return a, nil
	case "esc":
		a.stores.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.stores.input, cmd = a.stores.input.Update(msg)
	return a, cmd
}

func (a App) renderStoresTab(cw, h int) string {
	t := theme.Active
	ss := a.stores
	visible := a.visibleSummaries()

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	searchLine := ""
	switch {
	case ss.searching:
		searchLine = ss.input.View()
	case ss.query != "":
		searchLine = mutedStyle.Render(fmt.Sprintf("filter: %s  (esc to clear)", ss.query))
	}

	if len(visible) == 0 {
		body := mutedStyle.Render("No stores match")
		if searchLine != "" {
			body = searchLine + "\n\n" + body
		}
		return components.ContentCard("Stores", body, cw)
	}

	leftW := max(cw/3, 34)
	if a.isCompactLayout() {
		leftW = cw
	}
	rightW := cw - leftW
	leftInner := components.CardInnerWidth(leftW)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	currentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	// card border (2) + title (1) + header (1) + search line (1)
	rows := max(h-5, 5)
	offset := ss.offset
	if ss.cursor < offset {
		offset = ss.cursor
	}
	if ss.cursor >= offset+rows {
		offset = ss.cursor - rows + 1
	}
	end := min(offset+rows, len(visible))

	var left strings.Builder
	if searchLine != "" {
		left.WriteString(searchLine)
		left.WriteString("\n")
	}
	left.WriteString(headerStyle.Render(truncStr(fmt.Sprintf("%-7s %10s %10s", "Store", "MAE", "Next 30d"), leftInner)))
	left.WriteString("\n")
	for i := offset; i < end; i++ {
		s := visible[i]
		marker := " "
		if s.Store == a.in.Store {
			marker = "●"
		}
		line := truncStr(fmt.Sprintf("%s %-5s %10s %10s", marker, s.Store,
			cli.FormatCompact(s.Metrics.MAE), cli.FormatCompact(s.NextTotal30)), leftInner)
		switch {
		case i == ss.cursor:
			left.WriteString(selectedStyle.Render(line))
		case s.Store == a.in.Store:
			left.WriteString(currentStyle.Render(line))
		default:
			left.WriteString(rowStyle.Render(line))
		}
		left.WriteString("\n")
	}
	leftCard := components.ContentCard(fmt.Sprintf("Stores (%d)", len(visible)), strings.TrimRight(left.String(), "\n"), leftW)
	if rightW <= 0 {
		return leftCard
	}

	sel := visible[min(ss.cursor, len(visible)-1)]
	rightCard := components.ContentCard("Store "+sel.Store, a.renderStoreDetail(sel, rightW), rightW)
	return components.CardRow([]string{leftCard, rightCard})
}

func (a App) renderStoreDetail(s model.StoreSummary, w int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	pairs := [][2]string{
		{"Forecast rows", cli.FormatNumber(int64(s.Rows))},
		{"Date range", cli.FormatDate(s.FirstDate) + " .. " + cli.FormatDate(s.LastDate)},
		{"Rows with actual", cli.FormatNumber(int64(s.ActualRows))},
		{"MAE", cli.FormatSales(s.Metrics.MAE)},
		{"RMSE", cli.FormatSales(s.Metrics.RMSE)},
		{"MAPE", cli.FormatPercent(s.Metrics.MAPE)},
		{"Next 30 days", cli.FormatSales(s.NextTotal30)},
		{"Next 365 days", cli.FormatSales(s.NextTotal365)},
	}

	var b strings.Builder
	for _, p := range pairs {
		style := valueStyle
		if p[0] == "MAPE" && s.Metrics.Matched > 0 {
			style = style.Foreground(components.ColorForError(s.Metrics.MAPE / 100))
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-18s", p[0])))
		b.WriteString(style.Render(p[1]))
		b.WriteString("\n")
	}

	months := pipeline.AggregateMonths(a.data.StoreRows(s.Store))
	if len(months) > 0 {
		inner := components.CardInnerWidth(w)
		if len(months) > inner {
			months = months[len(months)-inner:]
		}
		vals := make([]float64, len(months))
		for i, m := range months {
			vals[i] = m.Forecast
		}
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Monthly forecast " + months[0].Period + " .. " + months[len(months)-1].Period))
		b.WriteString("\n")
		b.WriteString(components.Sparkline(vals, t.Accent))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter: select  /: search  j/k: move"))
	return b.String()
}
