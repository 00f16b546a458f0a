// Package list provides the dashboard activity list.
package list

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// DefaultCapacity bounds the remembered outcomes.
const DefaultCapacity = 200

// ActivityList shows recent processing outcomes, newest first.
type ActivityList struct {
	entries      []domain.ProcessResult
	capacity     int
	problemsOnly bool
	selected     int
	styles       *styles.Styles
	width        int
	height       int
}

// NewActivityList creates an activity list holding at most capacity entries.
func NewActivityList(s *styles.Styles, capacity int) *ActivityList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ActivityList{
		capacity: capacity,
		styles:   s,
		width:    80,
		height:   10,
	}
}

// Update handles list navigation keys.
func (a *ActivityList) Update(msg tea.Msg) (*ActivityList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			a.MoveUp()
		case "down", "j":
			a.MoveDown()
		}
	}
	return a, nil
}

// Push records an outcome at the top of the list.
func (a *ActivityList) Push(r domain.ProcessResult) {
	a.entries = append([]domain.ProcessResult{r}, a.entries...)
	if len(a.entries) > a.capacity {
		a.entries = a.entries[:a.capacity]
	}
	if a.selected > 0 && (!a.problemsOnly || isProblem(r)) {
		a.selected++
	}
	a.clampSelection()
}

// Clear drops every entry.
func (a *ActivityList) Clear() {
	a.entries = nil
	a.selected = 0
}

// ToggleProblemsOnly switches between all outcomes and failures plus duplicates.
func (a *ActivityList) ToggleProblemsOnly() {
	a.problemsOnly = !a.problemsOnly
	a.selected = 0
}

// ProblemsOnly reports whether the filter is active.
func (a *ActivityList) ProblemsOnly() bool {
	return a.problemsOnly
}

// Visible returns the entries passing the current filter, newest first.
func (a *ActivityList) Visible() []domain.ProcessResult {
	if !a.problemsOnly {
		return a.entries
	}
	var out []domain.ProcessResult
	for _, e := range a.entries {
		if isProblem(e) {
			out = append(out, e)
		}
	}
	return out
}

// View renders the list.
func (a *ActivityList) View() string {
	visible := a.Visible()
	if len(visible) == 0 {
		if a.problemsOnly {
			return a.styles.Muted.Render("No problems so far")
		}
		return a.styles.Muted.Render("Waiting for files...")
	}

	rows := a.height - 1
	if rows < 1 {
		rows = 1
	}
	start := 0
	if a.selected >= rows {
		start = a.selected - rows + 1
	}
	end := start + rows
	if end > len(visible) {
		end = len(visible)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, a.renderEntry(i, &visible[i]))
	}
	return strings.Join(lines, "\n")
}

func (a *ActivityList) renderEntry(index int, r *domain.ProcessResult) string {
	indicator := "  "
	if index == a.selected {
		indicator = "> "
	}

	name := filepath.Base(r.Path)
	if r.FinalPath != "" && r.FinalPath != r.Path {
		name += " -> " + filepath.Base(filepath.Dir(r.FinalPath))
	}

	detail := r.Reason
	if r.Status == domain.StatusStored {
		detail = domain.JoinTags(r.Tags)
	}

	maxDetail := a.width - len(name) - 16
	if maxDetail < 10 {
		maxDetail = 10
	}
	if d := []rune(detail); len(d) > maxDetail {
		detail = string(d[:maxDetail-3]) + "..."
	}

	status := a.styles.ForStatus(r.Status).Render(fmt.Sprintf("%-9s", r.Status))
	line := indicator + status + " " + name
	if index == a.selected {
		line = a.styles.Selected.Render(indicator+fmt.Sprintf("%-9s", r.Status)+" "+name)
	}
	if detail != "" {
		line += "  " + a.styles.Muted.Render(detail)
	}
	return line
}

// Selected returns the index of the selected entry within Visible.
func (a *ActivityList) Selected() int {
	return a.selected
}

// SelectedEntry returns the selected entry, or nil when the list is empty.
func (a *ActivityList) SelectedEntry() *domain.ProcessResult {
	visible := a.Visible()
	if a.selected < 0 || a.selected >= len(visible) {
		return nil
	}
	return &visible[a.selected]
}

// MoveUp moves selection towards newer entries.
func (a *ActivityList) MoveUp() {
	if a.selected > 0 {
		a.selected--
	}
}

// MoveDown moves selection towards older entries.
func (a *ActivityList) MoveDown() {
	if a.selected < len(a.Visible())-1 {
		a.selected++
	}
}

// SetDimensions sets the component dimensions.
func (a *ActivityList) SetDimensions(width, height int) {
	a.width = width
	a.height = height
}

// Count returns the number of remembered entries, ignoring the filter.
func (a *ActivityList) Count() int {
	return len(a.entries)
}

func (a *ActivityList) clampSelection() {
	n := len(a.Visible())
	if a.selected >= n {
		a.selected = n - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}

func isProblem(r domain.ProcessResult) bool {
	return r.Status == domain.StatusFailed || r.Status == domain.StatusDuplicate
}
