package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/salescast/internal/dashboard"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// filterValues are bound to the filter form fields.
type filterValues struct {
	store string
	start string
	end   string
	theme string
}

// validDate accepts an empty value (open bound) or a YYYY-MM-DD date.
func validDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func parseBound(s string) time.Time {
	d, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return d
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

// newFilterForm builds the store / date range / theme form over vals.
func newFilterForm(stores []string, first, last time.Time, vals *filterValues) *huh.Form {
	hint := fmt.Sprintf("data covers %s .. %s; blank means open", formatBound(first), formatBound(last))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Store").
				Options(huh.NewOptions(stores...)...).
				Height(8).
				Value(&vals.store),
			huh.NewInput().
				Title("Start date").
				Description(hint).
				Placeholder("YYYY-MM-DD").
				Validate(validDate).
				Value(&vals.start),
			huh.NewInput().
				Title("End date").
				Placeholder("YYYY-MM-DD").
				Validate(validDate).
				Value(&vals.end),
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&vals.theme),
		),
	).WithShowHelp(true)
}

func (a App) openFilterForm() (tea.Model, tea.Cmd) {
	*a.filterVals = filterValues{
		store: a.in.Store,
		start: formatBound(a.in.Start),
		end:   formatBound(a.in.End),
		theme: theme.Active.Name,
	}
	first, last := a.data.Bounds()
	a.filterForm = newFilterForm(a.data.Stores(), first, last, a.filterVals)
	if a.width > 0 {
		a.filterForm = a.filterForm.WithWidth(min(a.width, 60)).WithHeight(a.height)
	}
	return a, a.filterForm.Init()
}

func (a App) updateFilterForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		a.filterForm = nil
		return a, nil
	}

	form, cmd := a.filterForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.filterForm = f
	}

	switch a.filterForm.State {
	case huh.StateCompleted:
		a.filterForm = nil
		a.applyFilter(*a.filterVals)
		return a, nil
	case huh.StateAborted:
		a.filterForm = nil
		return a, nil
	}
	return a, cmd
}

// applyFilter turns submitted form values into a new selection.
func (a *App) applyFilter(v filterValues) {
	picked := theme.Active
	if v.theme != "" {
		picked = theme.ByName(v.theme)
	}
	next := dashboard.Inputs{
		Store: v.store,
		Start: parseBound(v.start),
		End:   parseBound(v.end),
		Theme: modeOf(picked),
	}
	if err := next.Validate(a.data); err != nil {
		a.setStatus(err.Error(), true)
		return
	}
	if picked.Name != theme.Active.Name {
		theme.SetActive(picked.Name)
		a.spinner.Style = a.spinner.Style.Foreground(picked.Accent).Background(picked.Surface)
		a.persistTheme(picked.Name)
	}
	a.apply(next)
	a.setStatus("showing store "+a.in.Store+" "+a.in.RangeLabel(), false)
}

func (a App) viewFilterForm() string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)

	body := titleStyle.Render("◈ Filter") + "\n\n" + a.filterForm.View()
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}
