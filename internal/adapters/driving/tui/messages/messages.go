// Package messages defines Bubbletea message types for the watch dashboard.
// The CLI sends them into the running program as the pipeline makes progress.
package messages

import (
	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// FileQueued is sent when the watcher hands a settled file to the queue.
type FileQueued struct {
	Path string
}

// FileProcessed carries the outcome of one file.
type FileProcessed struct {
	Result domain.ProcessResult
}

// WatchFailed reports an error that stopped the watcher.
type WatchFailed struct {
	Err error
}

// WatchStopped is sent once the watcher channel is closed.
type WatchStopped struct{}
