// Package loginstamp records successful logins in the background so that
// the /login response never waits on the last-login write.
package loginstamp

import (
	"context"
	"log/slog"
	"sync"
)

// Store persists the last-login timestamp for a user.
type Store interface {
	UpdateLoginTimestamp(ctx context.Context, username string) error
}

// Recorder owns a single worker goroutine draining a bounded queue.
type Recorder struct {
	store  Store
	logger *slog.Logger
	queue  chan string

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New starts the worker. Call Close to stop it.
func New(store Store, queueSize int, logger *slog.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		store:  store,
		logger: logger,
		queue:  make(chan string, queueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues a last-login update and returns immediately. When the queue
// is full or the recorder is closed the update is dropped and logged.
func (r *Recorder) Record(username string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("login timestamp dropped: recorder closed", "username", username)
		return
	}
	select {
	case r.queue <- username:
	default:
		r.logger.Warn("login timestamp dropped: queue full", "username", username)
	}
}

// Close stops accepting updates and waits until queued ones are written or
// ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for username := range r.queue {
		if err := r.store.UpdateLoginTimestamp(context.Background(), username); err != nil {
			r.logger.Error("update login timestamp failed", "username", username, "error", err)
		}
	}
}
