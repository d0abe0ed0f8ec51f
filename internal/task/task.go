// Package task provides cancellable scheduled tasks. A Handle can be
// cancelled exactly once, idempotently, from any goroutine; after Cancel
// returns no further ticks are delivered.
package task

import (
	"sync"
	"time"
)

// Handle controls a scheduled task.
type Handle struct {
	once sync.Once
	stop chan struct{}
}

// Cancel stops the task. Safe to call multiple times and from any
// goroutine.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.stop) })
}

// Done is closed once the task has been cancelled.
func (h *Handle) Done() <-chan struct{} { return h.stop }

// Repeat runs fn every interval until the returned handle is cancelled.
// fn runs on a dedicated goroutine; it must hand results back through a
// channel rather than mutate shared state.
func Repeat(interval time.Duration, fn func()) *Handle {
	h := &Handle{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return h
}
