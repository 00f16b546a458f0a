// Package status provides the dashboard status bar.
package status

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/styles"
)

// State represents the watcher state for display.
type State string

const (
	StateWatching   State = "watching"
	StateProcessing State = "processing"
	StateStopped    State = "stopped"
	StateError      State = "error"
)

// Bar displays watcher state, pending work and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	pending int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateWatching,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// StatusBar pads one cell on each side.
	padding := s.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var text string
	switch s.state {
	case StateProcessing:
		text = s.styles.Normal.Render("Processing " + filepath.Base(s.message))
	case StateStopped:
		text = s.styles.Muted.Render("Stopped")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	default:
		text = s.styles.Muted.Render("Watching")
	}

	if s.pending > 0 {
		text += s.styles.Muted.Render(fmt.Sprintf(" (%d queued)", s.pending))
	}
	return text
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the path being processed or the error text.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetPending sets the number of queued files.
func (s *Bar) SetPending(n int) {
	if n < 0 {
		n = 0
	}
	s.pending = n
}

// Pending returns the number of queued files.
func (s *Bar) Pending() int {
	return s.pending
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
