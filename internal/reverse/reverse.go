// Package reverse simulates backward playback by repeated single-frame
// backward seeks, since neither playback engine supports a negative rate.
package reverse

import (
	"sync"
	"time"

	"github.com/aagedal/reel/internal/task"
)

const (
	baseInterval  = time.Second / 24
	maxMultiplier = 4
)

// Callbacks are invoked by the simulator. Step fires from the timer
// goroutine and must re-enter the coordination context itself; Pause and
// Rate are called synchronously from Trigger/Stop with the simulator
// unlocked, so they may call back into it.
type Callbacks struct {
	Pause func()        // pause the backend before stepping backwards
	Step  func()        // issue one backward single-frame seek
	Rate  func(float64) // update the displayed playback rate
}

// Simulator drives pseudo-reverse playback with a cancellable repeating
// timer. The zero value is not usable; construct with New.
type Simulator struct {
	mu         sync.Mutex
	cb         Callbacks
	multiplier int
	handle     *task.Handle
}

// New creates an inactive simulator.
func New(cb Callbacks) *Simulator {
	return &Simulator{cb: cb, multiplier: 1}
}

// Trigger activates reverse playback, or speeds it up if already active.
// The speed multiplier is capped at 4; the step timer fires every
// (1/24)/multiplier seconds and the displayed rate becomes -multiplier.
func (s *Simulator) Trigger() {
	s.mu.Lock()
	first := s.handle == nil
	if first {
		s.multiplier = 1
	} else {
		if s.multiplier >= maxMultiplier {
			s.mu.Unlock()
			return
		}
		s.multiplier++
		s.handle.Cancel()
	}
	s.handle = task.Repeat(baseInterval/time.Duration(s.multiplier), s.cb.Step)
	rate := -float64(s.multiplier)
	s.mu.Unlock()

	if first {
		s.cb.Pause()
	}
	s.cb.Rate(rate)
}

// Stop cancels the step timer, resets the multiplier and restores the
// displayed rate to 1.0. No-op when inactive.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if s.handle == nil {
		s.mu.Unlock()
		return
	}
	s.handle.Cancel()
	s.handle = nil
	s.multiplier = 1
	s.mu.Unlock()

	s.cb.Rate(1.0)
}

// Active reports whether reverse playback is currently simulated.
func (s *Simulator) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// Multiplier returns the current speed multiplier.
func (s *Simulator) Multiplier() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.multiplier
}
