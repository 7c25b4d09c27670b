// Package tui provides the interactive scheduling screen for the roster.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/roster/internal/models"
	"github.com/fentz26/roster/internal/schedule"
)

type pane int

const (
	paneAssigned pane = iota
	paneUnassigned
)

type mountedMsg struct{ err error }

type submittedMsg struct {
	count int
	err   error
}

// App is the main TUI application model.
type App struct {
	session *schedule.Session
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width    int
	height   int
	focus    pane
	cursor   [2]int
	spinning bool
	message  string
}

// New creates a TUI over the given session.
func New(session *schedule.Session) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return &App{
		session: session,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: s,
		width:   80,
		height:  24,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.mount(), a.startSpinner())
}

func (a *App) mount() tea.Cmd {
	return func() tea.Msg {
		return mountedMsg{err: a.session.Mount(context.Background())}
	}
}

func (a *App) submit() tea.Cmd {
	f := a.session.Submit()
	return func() tea.Msg {
		tasks, err := f.Wait(context.Background())
		return submittedMsg{count: len(tasks), err: err}
	}
}

func (a *App) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) busy() bool {
	v := a.session.View()
	return v.Loading || v.Tasks.Submitting
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width

	case mountedMsg:
		if msg.err != nil {
			a.message = "Error: " + msg.err.Error()
		} else {
			a.message = ""
		}

	case submittedMsg:
		if msg.err != nil {
			a.message = "Error: " + msg.err.Error()
		} else {
			a.message = fmt.Sprintf("✓ Saved %d tasks", msg.count)
		}

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	v := a.session.View()
	a.clampCursors(v)

	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit

	case key.Matches(msg, a.keys.Up):
		if a.cursor[a.focus] > 0 {
			a.cursor[a.focus]--
		}

	case key.Matches(msg, a.keys.Down):
		if a.cursor[a.focus] < len(a.list(v, a.focus))-1 {
			a.cursor[a.focus]++
		}

	case key.Matches(msg, a.keys.Focus):
		if a.focus == paneAssigned {
			a.focus = paneUnassigned
		} else {
			a.focus = paneAssigned
		}

	case key.Matches(msg, a.keys.PrevTab):
		a.shiftHousekeeper(v, -1)

	case key.Matches(msg, a.keys.NextTab):
		a.shiftHousekeeper(v, 1)

	case key.Matches(msg, a.keys.Assign):
		if t, ok := a.current(v, paneUnassigned); ok && a.focus == paneUnassigned {
			a.session.AssignToSelected(t.ID)
		}

	case key.Matches(msg, a.keys.Unassign):
		if t, ok := a.current(v, paneAssigned); ok && a.focus == paneAssigned {
			a.session.Unassign(t.ID)
		}

	case key.Matches(msg, a.keys.MoveUp):
		if a.focus == paneAssigned && a.cursor[paneAssigned] > 0 {
			i := a.cursor[paneAssigned]
			a.session.MoveAssigned(i, i-1)
			a.cursor[paneAssigned]--
		}

	case key.Matches(msg, a.keys.MoveDown):
		if a.focus == paneAssigned && a.cursor[paneAssigned] < len(v.Assigned)-1 {
			i := a.cursor[paneAssigned]
			a.session.MoveAssigned(i, i+1)
			a.cursor[paneAssigned]++
		}

	case key.Matches(msg, a.keys.Submit):
		if v.Tasks.Submitting || !v.Tasks.IsModified {
			return nil
		}
		a.message = ""
		return tea.Batch(a.submit(), a.startSpinner())

	case key.Matches(msg, a.keys.Cancel):
		if v.Tasks.IsModified {
			a.session.Cancel()
			a.message = "Changes discarded"
		}

	case key.Matches(msg, a.keys.Reload):
		a.message = ""
		return tea.Batch(a.mount(), a.startSpinner())
	}

	return nil
}

func (a *App) shiftHousekeeper(v schedule.View, delta int) {
	hks := v.Roster.Housekeepers
	if len(hks) == 0 {
		return
	}
	idx := 0
	if v.Selected != nil {
		for i, hk := range hks {
			if hk.ID == *v.Selected {
				idx = i
				break
			}
		}
	}
	idx = (idx + delta + len(hks)) % len(hks)
	a.session.Select(hks[idx].ID)
	a.cursor[paneAssigned] = 0
}

func (a *App) list(v schedule.View, p pane) []models.Task {
	if p == paneAssigned {
		return v.Assigned
	}
	return v.Unassigned
}

func (a *App) current(v schedule.View, p pane) (models.Task, bool) {
	l := a.list(v, p)
	i := a.cursor[p]
	if i < 0 || i >= len(l) {
		return models.Task{}, false
	}
	return l[i], true
}

func (a *App) clampCursors(v schedule.View) {
	for _, p := range []pane{paneAssigned, paneUnassigned} {
		n := len(a.list(v, p))
		if a.cursor[p] >= n {
			a.cursor[p] = max(0, n-1)
		}
	}
}

// View implements tea.Model
func (a *App) View() string {
	v := a.session.View()
	a.clampCursors(v)

	var b strings.Builder

	header := titleStyle.Render("Housekeeping Schedule")
	switch {
	case v.Tasks.Submitting:
		header += "  " + a.spinner.View() + " saving..."
	case v.Loading:
		header += "  " + a.spinner.View() + " loading..."
	case v.Tasks.IsModified:
		header += "  " + modifiedStyle.Render("● unsaved changes")
	case v.Tasks.Loaded:
		header += "  " + savedStyle.Render("● saved")
	}
	b.WriteString(header + "\n")
	b.WriteString(a.renderTabs(v) + "\n\n")

	if banner := a.errorBanner(v); banner != "" {
		b.WriteString(errorStyle.Render(banner) + "\n\n")
	}

	height := a.height - 10
	if height < 3 {
		height = 3
	}
	half := a.width/2 - 2
	if half < 20 {
		half = 20
	}

	assigned := a.renderPane(v, paneAssigned, a.assignedTitle(v), half, height)
	unassigned := a.renderPane(v, paneUnassigned, fmt.Sprintf("Unassigned (%d)", len(v.Unassigned)), half, height)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, assigned, unassigned) + "\n")

	if a.message != "" {
		style := savedStyle
		if strings.HasPrefix(a.message, "Error") {
			style = errorStyle
		}
		b.WriteString(style.Render(a.message) + "\n")
	}

	b.WriteString(a.help.View(a.keys) + "\n")
	status := fmt.Sprintf(" Tasks: %d | Assigned: %d | Unassigned: %d", len(v.Tasks.Tasks), len(v.Assigned), len(v.Unassigned))
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) errorBanner(v schedule.View) string {
	switch {
	case v.Error:
		return "⚠ Failed to load: " + v.ErrorMessage
	case v.Tasks.SubmitError:
		return "⚠ Failed to save: " + v.Tasks.SubmitErrorMessage
	}
	return ""
}

func (a *App) assignedTitle(v schedule.View) string {
	if v.Selected == nil {
		return "Assigned"
	}
	for _, hk := range v.Roster.Housekeepers {
		if hk.ID == *v.Selected {
			return fmt.Sprintf("%s (%d)", hk.Name, len(v.Assigned))
		}
	}
	return fmt.Sprintf("Housekeeper %d (%d)", *v.Selected, len(v.Assigned))
}

func (a *App) renderTabs(v schedule.View) string {
	if len(v.Roster.Housekeepers) == 0 {
		return helpStyle.Render("  No housekeepers")
	}
	tabs := make([]string, 0, len(v.Roster.Housekeepers))
	for _, hk := range v.Roster.Housekeepers {
		if v.Selected != nil && hk.ID == *v.Selected {
			tabs = append(tabs, activeTabStyle.Render(hk.Name))
		} else {
			tabs = append(tabs, tabStyle.Render(hk.Name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderPane(v schedule.View, p pane, title string, width, height int) string {
	style := panelStyle
	if a.focus == p {
		style = focusedPanelStyle
	}

	tasks := a.list(v, p)
	lines := []string{panelTitleStyle.Render(title)}
	if len(tasks) == 0 {
		lines = append(lines, helpStyle.Render("  nothing here"))
	}

	var rows []string
	for i, t := range tasks {
		label := fmt.Sprintf("%s  %s", t.Title, detailStyle.Render(fmt.Sprintf("%s · %dm", t.HotelApartment, t.Duration)))
		if a.focus == p && i == a.cursor[p] {
			rows = append(rows, selectedStyle.Render("▶ "+t.Title+fmt.Sprintf("  %s · %dm", t.HotelApartment, t.Duration)))
		} else {
			rows = append(rows, taskItemStyle.Render("  "+label))
		}
	}

	// Limit visible rows
	if len(rows) > height {
		start := a.cursor[p] - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(rows) {
			end = len(rows)
			start = max(0, end-height)
		}
		rows = rows[start:end]
	}
	lines = append(lines, rows...)

	return style.Width(width).Render(strings.Join(lines, "\n"))
}
