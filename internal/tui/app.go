// Package tui provides the interactive Bubble Tea dashboard for salescast.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/dashboard"
	"github.com/theirongolddev/salescast/internal/logging"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/store"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the forecast and actuals files have been merged.
type DataLoadedMsg struct {
	Data     *dashboard.Data
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports forecast file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// ExportDoneMsg is sent when a download finishes.
type ExportDoneMsg struct {
	Result *dashboard.ExportResult
	Err    error
}

// Options configures the dashboard.
type Options struct {
	ExportDir    string
	ActualsPath  string
	DownloadDir  string
	CachePath    string // empty disables the sqlite cache
	DefaultStore string
	Theme        string
	// PersistTheme saves theme changes back to the config file.
	PersistTheme bool
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	data      *dashboard.Data
	loaded    bool
	loadErr   error
	loadTime  time.Duration
	summaries []model.StoreSummary

	// Current selection and the views computed from it
	in   dashboard.Inputs
	view dashboard.View

	// UI state
	width      int
	height     int
	activeTab  int
	showHelp   bool
	status     string
	statusWarn bool
	exporting  bool

	// Filter form (huh); values live on the heap so copies of App share them
	filterForm *huh.Form
	filterVals *filterValues

	stores storesState

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Theme != "" {
		theme.SetActive(opts.Theme)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:       opts,
		spinner:    sp,
		loadSub:    make(chan tea.Msg, 1),
		filterVals: &filterValues{},
		stores:     newStoresState(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts, a.loadSub),
		a.spinner.Tick,
	)
}

func modeOf(t theme.Theme) dashboard.Mode {
	if t.Dark {
		return dashboard.ModeDark
	}
	return dashboard.ModeLight
}

// setData installs freshly loaded data and computes every view.
func (a *App) setData(d *dashboard.Data) {
	a.data = d
	a.summaries = pipeline.Summarize(d.Rows())
	a.in = dashboard.DefaultInputs(d, a.opts.DefaultStore, modeOf(theme.Active))
	a.view = dashboard.Refresh(d, a.in, dashboard.View{})
	a.stores.clamp(len(a.summaries))

	if d.AggregateActuals() {
		a.setStatus("actuals are chain totals; run `salescast actuals --by-store` for per-store comparisons", true)
	} else if d.Stats.ActualsMissing {
		a.setStatus("no actuals file; showing forecasts only", true)
	} else if d.Stats.FileErrors > 0 {
		a.setStatus(fmt.Sprintf("%d forecast files could not be read", d.Stats.FileErrors), true)
	}
}

// apply switches to a new selection and recomputes the outputs bound to the
// inputs that changed.
func (a *App) apply(next dashboard.Inputs) {
	if a.data == nil {
		return
	}
	if err := next.Validate(a.data); err != nil {
		a.setStatus(err.Error(), true)
		return
	}
	changed := dashboard.Diff(a.in, next)
	if len(changed) == 0 {
		return
	}
	a.in = next
	a.view = dashboard.Refresh(a.data, next, a.view, changed...)
}

func (a *App) setStatus(msg string, warn bool) {
	a.status = msg
	a.statusWarn = warn
}

// stepStore moves the selection delta stores along the natural store order.
func (a *App) stepStore(delta int) {
	stores := a.data.Stores()
	if len(stores) == 0 {
		return
	}
	idx := 0
	for i, s := range stores {
		if s == a.in.Store {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(stores)) % len(stores)
	next := a.in
	next.Store = stores[idx]
	a.apply(next)
}

func (a *App) toggleTheme() {
	t := theme.Toggle()
	a.spinner.Style = a.spinner.Style.Foreground(t.Accent).Background(t.Surface)
	next := a.in
	next.Theme = modeOf(t)
	a.apply(next)
	a.setStatus("theme: "+t.Name, false)
	a.persistTheme(t.Name)
}

// persistTheme writes the theme back to the config file when enabled.
func (a *App) persistTheme(name string) {
	if !a.opts.PersistTheme {
		return
	}
	cfg, err := config.Load()
	if err == nil {
		cfg.Appearance.Theme = name
		err = config.Save(cfg)
	}
	if err != nil {
		logging.Warn().Err(err).Msg("saving theme")
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.filterForm != nil {
			a.filterForm = a.filterForm.WithWidth(min(msg.Width, 60)).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.data == nil || a.showHelp || a.filterForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabStores && !a.stores.searching {
				a.stores.move(-1, len(a.visibleSummaries()))
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabStores && !a.stores.searching {
				a.stores.move(1, len(a.visibleSummaries()))
			}
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.filterForm != nil {
			return a.updateFilterForm(msg)
		}
		if a.data == nil {
			// load failed: nothing to navigate
			if key == "q" || key == "esc" {
				return a, tea.Quit
			}
			return a, nil
		}
		if a.activeTab == tabStores && a.stores.searching {
			return a.updateStoresSearch(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if a.activeTab == tabStores {
			if m, cmd, handled := a.updateStoresKeys(key); handled {
				return m, cmd
			}
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "f":
			return a.openFilterForm()
		case "t":
			a.toggleTheme()
		case "d":
			if a.exporting {
				return a, nil
			}
			a.exporting = true
			a.setStatus("exporting store "+a.in.Store+"...", false)
			return a, exportCmd(a.data, a.in, a.opts.DownloadDir)
		case "]":
			a.stepStore(1)
		case "[":
			a.stepStore(-1)
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		default:
			if len(key) == 1 {
				if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
					a.activeTab = idx
				}
			}
		}
		return a, nil

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			a.setStatus("load failed: "+msg.Err.Error(), true)
			return a, nil
		}
		a.setData(msg.Data)
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case ExportDoneMsg:
		a.exporting = false
		if msg.Err != nil {
			a.setStatus("download failed: "+msg.Err.Error(), true)
			return a, nil
		}
		text := fmt.Sprintf("saved %s rows to %s", cli.FormatNumber(int64(msg.Result.Rows)), msg.Result.CSVPath)
		if msg.Result.PNGPath == "" {
			text += " (no plot)"
		}
		a.setStatus(text, false)
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the filter form (cursor blinks, etc.)
	if a.filterForm != nil {
		return a.updateFilterForm(msg)
	}
	return a, nil
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.data == nil {
		return a.viewLoadError()
	}
	if a.filterForm != nil {
		return a.viewFilterForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  salescast needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ salescast"))
	b.WriteString(subtitleStyle.Render(" · Store Sales Forecasts"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(min(40, a.width-30), 20)
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Reading forecast files\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Discovering forecasts..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoadError() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := titleStyle.Render("Could not load dashboard data") + "\n\n" +
		textStyle.Render(wrapText(a.loadErr.Error(), 60)) + "\n\n" +
		textStyle.Render("Run `salescast forecast` first, then try again. Press q to quit.")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o c s", "Forecast / Compare / Stores tab"},
			{"← →", "Previous / Next tab"},
			{"[ ]", "Previous / Next store"},
			{"j k", "Move in store list"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"f", "Filter: store, date range, theme"},
			{"t", "Toggle light / dark"},
			{"d", "Download selection as CSV + PNG"},
			{"/", "Search stores"},
			{"Enter", "Select store"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	selection := pillStyle.Render(" Store ") + accentStyle.Render(a.in.Store) +
		pillStyle.Render(" │ ") + accentStyle.Render(a.in.RangeLabel()) +
		pillStyle.Render(" │ ") + accentStyle.Render(theme.Active.Name)
	if a.data.AggregateActuals() {
		selection += pillStyle.Render(" │ ") + warnStyle.Render("actuals: chain totals")
	}
	rowStyle := lipgloss.NewStyle().Background(t.Surface).Width(w)
	header := components.RenderTabBar(a.activeTab, w) + "\n" + rowStyle.Render(selection)

	statusBar := components.RenderStatusBar(w, components.Status{
		Store:   a.in.Store,
		Range:   a.in.RangeLabel(),
		Message: a.status,
		Warning: a.statusWarn,
		LoadAge: cli.FormatElapsed(a.loadTime),
	})

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabForecast:
		content = a.renderForecastTab(cw, contentH)
	case tabCompare:
		content = a.renderCompareTab(cw, contentH)
	case tabStores:
		content = a.renderStoresTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

// loadDataCmd starts loading in a background goroutine. It streams
// ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(opts Options, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			lo := dashboard.LoadOptions{
				ExportDir:   opts.ExportDir,
				ActualsPath: opts.ActualsPath,
				Progress:    progressFn,
			}
			if opts.CachePath != "" {
				cache, err := store.Open(opts.CachePath)
				if err != nil {
					logging.Warn().Err(err).Msg("opening cache, loading without it")
				} else {
					defer func() { _ = cache.Close() }()
					lo.Cache = cache
				}
			}

			d, err := dashboard.Load(lo)
			sub <- DataLoadedMsg{Data: d, Err: err, LoadTime: time.Since(start)}
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func exportCmd(d *dashboard.Data, in dashboard.Inputs, dir string) tea.Cmd {
	return func() tea.Msg {
		res, err := dashboard.Export(d, in, dir)
		return ExportDoneMsg{Result: res, Err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func wrapText(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color,
// so gaps between cards keep the theme background.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}
