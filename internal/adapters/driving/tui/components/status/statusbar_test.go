package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/refshelf/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateWatching, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.Pending())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilArgs(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_SetPending_ClampsNegative(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetPending(3)
	assert.Equal(t, 3, bar.Pending())

	bar.SetPending(-1)
	assert.Equal(t, 0, bar.Pending())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		pending int
		want    []string
	}{
		{name: "watching", state: StateWatching, want: []string{"Watching", "q: quit"}},
		{name: "queued", state: StateWatching, pending: 4, want: []string{"(4 queued)"}},
		{name: "processing", state: StateProcessing, message: "/inbox/deep/ig_P1_1.jpg", want: []string{"Processing ig_P1_1.jpg"}},
		{name: "stopped", state: StateStopped, want: []string{"Stopped"}},
		{name: "error", state: StateError, message: "watch failed", want: []string{"Error: watch failed"}},
		{name: "bare error", state: StateError, want: []string{"Error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetPending(tt.pending)

			view := bar.View()

			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}

func TestBar_View_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(5)

	assert.NotEmpty(t, bar.View())
}
