// Package tui renders the live watch dashboard: pipeline counters, the file
// currently being classified and a scrollable history of outcomes.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// Config describes the session shown in the header.
type Config struct {
	// Root is the watched directory.
	Root string

	// SessionID identifies the watch session in logs.
	SessionID string

	// History bounds the activity list. Zero uses list.DefaultCapacity.
	History int
}

// App is the watch dashboard model.
type App struct {
	cfg    Config
	styles *styles.Styles
	keys   *keymap.KeyMap

	spinner  spinner.Model
	help     help.Model
	activity *list.ActivityList
	bar      *status.Bar

	// inFlight mirrors the queue: the head is being processed.
	inFlight []string
	counts   domain.ScanResult

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the dashboard.
func NewApp(cfg Config) *App {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Subtitle

	return &App{
		cfg:      cfg,
		styles:   s,
		keys:     km,
		spinner:  sp,
		help:     help.New(),
		activity: list.NewActivityList(s, cfg.History),
		bar:      status.NewBar(s, km),
		width:    80,
		height:   24,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		tea.SetWindowTitle("refshelf - watching "+a.cfg.Root),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.FileQueued:
		a.inFlight = append(a.inFlight, msg.Path)
		a.syncBar()
		return a, nil

	case messages.FileProcessed:
		a.finish(msg.Result.Path)
		a.counts.Add(msg.Result)
		a.activity.Push(msg.Result)
		a.syncBar()
		return a, nil

	case messages.WatchFailed:
		a.bar.SetState(status.StateError)
		a.bar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.WatchStopped:
		a.bar.SetState(status.StateStopped)
		a.bar.SetMessage("")
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keys.Quit):
		return a, tea.Quit
	case keymap.Matches(key, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case keymap.Matches(key, a.keys.Clear):
		a.activity.Clear()
	case keymap.Matches(key, a.keys.Failures):
		a.activity.ToggleProblemsOnly()
	default:
		a.activity, _ = a.activity.Update(msg)
	}
	return a, nil
}

// finish drops path from the in-flight list. Results for files that were
// never announced (scan mode) are ignored.
func (a *App) finish(path string) {
	for i, p := range a.inFlight {
		if p == path {
			a.inFlight = append(a.inFlight[:i], a.inFlight[i+1:]...)
			return
		}
	}
}

func (a *App) syncBar() {
	if a.bar.State() == status.StateError || a.bar.State() == status.StateStopped {
		return
	}
	if len(a.inFlight) == 0 {
		a.bar.SetState(status.StateWatching)
		a.bar.SetMessage("")
		a.bar.SetPending(0)
		return
	}
	a.bar.SetState(status.StateProcessing)
	a.bar.SetMessage(a.inFlight[0])
	a.bar.SetPending(len(a.inFlight) - 1)
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("refshelf"))
	b.WriteString(a.styles.Muted.Render("  watching " + a.cfg.Root))
	if a.cfg.SessionID != "" {
		b.WriteString(a.styles.Muted.Render("  session " + shortID(a.cfg.SessionID)))
	}
	b.WriteString("\n\n")

	if len(a.inFlight) > 0 {
		b.WriteString(a.spinner.View() + " ")
	} else {
		b.WriteString("  ")
	}
	b.WriteString(a.renderCounts())
	b.WriteString("\n\n")

	b.WriteString(a.activity.View())
	b.WriteString("\n\n")

	if a.help.ShowAll {
		b.WriteString(a.help.View(a.keys))
		b.WriteString("\n")
	}
	b.WriteString(a.bar.View())

	return b.String()
}

func (a *App) renderCounts() string {
	c := a.counts
	stored := a.styles.Success.Render(fmt.Sprintf("stored %d", c.Stored()))
	kinds := a.styles.Muted.Render(fmt.Sprintf("(pdf %d, image %d, text %d)", c.PDFs, c.Images, c.Texts))
	rest := []string{
		a.styles.Warning.Render(fmt.Sprintf("duplicates %d", c.Duplicates)),
		a.styles.Muted.Render(fmt.Sprintf("skipped %d", c.Skipped)),
		a.styles.Error.Render(fmt.Sprintf("failed %d", c.Failed)),
	}
	return stored + " " + kinds + "  " + strings.Join(rest, "  ")
}

// SetDimensions resizes the dashboard.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.help.Width = width
	a.bar.SetWidth(width)

	// header, counters, spacing and the status bar take eight rows
	rows := height - 8
	if rows < 3 {
		rows = 3
	}
	a.activity.SetDimensions(width, rows)
}

// Counts returns the aggregate of every processed file.
func (a *App) Counts() domain.ScanResult {
	return a.counts
}

// Pending returns the number of announced files not yet processed.
func (a *App) Pending() int {
	return len(a.inFlight)
}

// Activity exposes the history list.
func (a *App) Activity() *list.ActivityList {
	return a.activity
}

// Status exposes the status bar.
func (a *App) Status() *status.Bar {
	return a.bar
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
