package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driving"
	"github.com/custodia-labs/refshelf/internal/logger"
)

// Queue is an unbounded FIFO of file paths. Enqueue never blocks.
type Queue struct {
	mu     sync.Mutex
	items  []string
	closed bool
	notify chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Enqueue appends path. Returns domain.ErrQueueClosed after Close.
func (q *Queue) Enqueue(path string) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return domain.ErrQueueClosed
	}
	q.items = append(q.items, path)
	q.mu.Unlock()

	q.signal()
	return nil
}

// Dequeue blocks until an item is available. It returns domain.ErrQueueClosed
// once the queue is closed and drained, or the context error on cancellation.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = ""
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return "", domain.ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.notify:
		}
	}
}

// Close stops accepting items. Queued items are still delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Worker is the single consumer of a Queue. Items are processed strictly
// one at a time in enqueue order.
type Worker struct {
	queue    *Queue
	ingestor driving.Ingestor
	root     string
	onResult func(domain.ProcessResult)

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewWorker creates a worker for files under root. onResult, if non-nil,
// receives every result.
func NewWorker(queue *Queue, ingestor driving.Ingestor, root string, onResult func(domain.ProcessResult)) *Worker {
	return &Worker{queue: queue, ingestor: ingestor, root: root, onResult: onResult}
}

// Start runs the worker loop in the background.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("worker: %v", err)
		}
	}()
}

// Stop closes the queue and waits for pending items to drain.
func (w *Worker) Stop() {
	w.queue.Close()
	w.wg.Wait()

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// Run consumes the queue until it is closed and drained or ctx is done.
// A failing or panicking item never stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	for {
		path, err := w.queue.Dequeue(ctx)
		if errors.Is(err, domain.ErrQueueClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		result := w.handle(ctx, path)
		if w.onResult != nil {
			w.onResult(result)
		}
	}
}

func (w *Worker) handle(ctx context.Context, path string) (result domain.ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker: panic processing %s: %v", path, r)
			result = domain.ProcessResult{
				Path:      path,
				FinalPath: path,
				Status:    domain.StatusFailed,
				Reason:    fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return w.ingestor.Process(ctx, w.root, path)
}
