package messages

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

func TestMessages_AreTeaMsgs(t *testing.T) {
	msgs := []tea.Msg{
		FileQueued{Path: "/inbox/a.jpg"},
		FileProcessed{Result: domain.ProcessResult{Path: "/inbox/a.jpg", Status: domain.StatusStored}},
		WatchFailed{Err: errors.New("boom")},
		WatchStopped{},
	}

	for _, m := range msgs {
		switch v := m.(type) {
		case FileQueued:
			assert.Equal(t, "/inbox/a.jpg", v.Path)
		case FileProcessed:
			assert.True(t, v.Result.Success())
		case WatchFailed:
			assert.EqualError(t, v.Err, "boom")
		case WatchStopped:
		default:
			t.Fatalf("unexpected message %T", m)
		}
	}
}
