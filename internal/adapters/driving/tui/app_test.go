package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/refshelf/internal/core/domain"
)

func newTestApp() *App {
	app := NewApp(Config{Root: "/inbox", SessionID: "0f8fad5b-d9cb-469f-a165-70867728950e"})
	app.SetDimensions(120, 30)
	return app
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp(t *testing.T) {
	app := NewApp(Config{Root: "/inbox"})

	require.NotNil(t, app)
	assert.Equal(t, 0, app.Pending())
	assert.Equal(t, domain.ScanResult{}, app.Counts())
	assert.Equal(t, status.StateWatching, app.Status().State())
}

func TestApp_Init(t *testing.T) {
	assert.NotNil(t, newTestApp().Init())
}

func TestApp_QueuedThenProcessed(t *testing.T) {
	app := newTestApp()

	app.Update(messages.FileQueued{Path: "/inbox/a.txt"})
	app.Update(messages.FileQueued{Path: "/inbox/b.jpg"})

	assert.Equal(t, 2, app.Pending())
	assert.Equal(t, status.StateProcessing, app.Status().State())
	assert.Equal(t, "/inbox/a.txt", app.Status().Message())
	assert.Equal(t, 1, app.Status().Pending())

	app.Update(messages.FileProcessed{Result: domain.ProcessResult{
		Path: "/inbox/a.txt", Kind: domain.KindText, Status: domain.StatusStored,
	}})

	assert.Equal(t, 1, app.Pending())
	assert.Equal(t, "/inbox/b.jpg", app.Status().Message())
	assert.Equal(t, 1, app.Counts().Texts)

	app.Update(messages.FileProcessed{Result: domain.ProcessResult{
		Path: "/inbox/b.jpg", Kind: domain.KindImage, Status: domain.StatusDuplicate,
	}})

	assert.Equal(t, 0, app.Pending())
	assert.Equal(t, status.StateWatching, app.Status().State())
	assert.Equal(t, 1, app.Counts().Duplicates)
	assert.Equal(t, 2, app.Activity().Count())
}

func TestApp_UnannouncedResultIsCounted(t *testing.T) {
	app := newTestApp()

	app.Update(messages.FileProcessed{Result: domain.ProcessResult{Path: "/inbox/x.pdf", Status: domain.StatusFailed}})

	assert.Equal(t, 1, app.Counts().Failed)
	assert.Equal(t, 0, app.Pending())
}

func TestApp_WatchFailedAndStopped(t *testing.T) {
	app := newTestApp()

	app.Update(messages.WatchFailed{Err: errors.New("inotify limit")})
	assert.Equal(t, status.StateError, app.Status().State())
	assert.Equal(t, "inotify limit", app.Status().Message())

	// Error state is sticky across later results.
	app.Update(messages.FileQueued{Path: "/inbox/a.txt"})
	assert.Equal(t, status.StateError, app.Status().State())

	app.Update(messages.WatchStopped{})
	assert.Equal(t, status.StateStopped, app.Status().State())
}

func TestApp_Keys(t *testing.T) {
	t.Run("quit", func(t *testing.T) {
		_, cmd := newTestApp().Update(keyRunes("q"))
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	})

	t.Run("ctrl+c quits", func(t *testing.T) {
		_, cmd := newTestApp().Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	})

	t.Run("help toggles full help", func(t *testing.T) {
		app := newTestApp()
		app.Update(keyRunes("?"))
		assert.Contains(t, app.View(), "problems only")
		app.Update(keyRunes("?"))
		assert.NotContains(t, app.View(), "problems only")
	})

	t.Run("clear empties history", func(t *testing.T) {
		app := newTestApp()
		app.Update(messages.FileProcessed{Result: domain.ProcessResult{Path: "/inbox/a.txt", Status: domain.StatusStored}})
		app.Update(keyRunes("c"))
		assert.Equal(t, 0, app.Activity().Count())
		assert.Equal(t, 1, app.Counts().Stored())
	})

	t.Run("f filters problems", func(t *testing.T) {
		app := newTestApp()
		app.Update(keyRunes("f"))
		assert.True(t, app.Activity().ProblemsOnly())
	})

	t.Run("navigation is forwarded", func(t *testing.T) {
		app := newTestApp()
		app.Update(messages.FileProcessed{Result: domain.ProcessResult{Path: "/inbox/a.txt", Status: domain.StatusSkipped}})
		app.Update(messages.FileProcessed{Result: domain.ProcessResult{Path: "/inbox/b.txt", Status: domain.StatusSkipped}})
		app.Update(keyRunes("j"))
		assert.Equal(t, 1, app.Activity().Selected())
	})
}

func TestApp_SpinnerTick(t *testing.T) {
	app := newTestApp()

	_, cmd := app.Update(app.spinner.Tick())

	assert.NotNil(t, cmd)
}

func TestApp_WindowSize(t *testing.T) {
	app := newTestApp()

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, 100, app.Status().Width())
}

func TestApp_View(t *testing.T) {
	app := newTestApp()
	app.Update(messages.FileProcessed{Result: domain.ProcessResult{
		Path:   "/inbox/essay.txt",
		Kind:   domain.KindText,
		Status: domain.StatusStored,
		Tags:   []domain.Tag{"essay"},
	}})

	view := app.View()

	assert.Contains(t, view, "refshelf")
	assert.Contains(t, view, "watching /inbox")
	assert.Contains(t, view, "session 0f8fad5b")
	assert.Contains(t, view, "stored 1")
	assert.Contains(t, view, "text 1")
	assert.Contains(t, view, "essay.txt")
	assert.Contains(t, view, "q: quit")
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("1234567890"))
}
